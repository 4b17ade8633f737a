package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raids-lab/approvalflow/cmd/approval/helper"
	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/pkg/approval"
)

type replayOutput struct {
	RequestID uint                        `json:"requestID"`
	Stored    string                      `json:"stored"`
	Replayed  string                      `json:"replayed"`
	Status    model.ApprovalRequestStatus `json:"status"`
	Match     bool                        `json:"match"`
	Error     string                      `json:"error,omitempty"`
}

func newReplayCmd(configInit *helper.ConfigInitializer) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "replay [request-id]",
		Short: "Recompute request state from the audit log and compare it with the stored state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := configInit.Service()
			ctx := cmd.Context()

			var ids []uint
			if all {
				requests, err := svc.List(ctx, approval.RequestFilter{})
				if err != nil {
					return err
				}
				for _, r := range requests {
					ids = append(ids, r.ID)
				}
			} else {
				arg, err := requireArg(args, "request-id")
				if err != nil {
					return err
				}
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid request id %q: %w", arg, err)
				}
				ids = append(ids, uint(id))
			}

			outputs := make([]replayOutput, 0, len(ids))
			mismatches := 0
			for _, id := range ids {
				out := replayOutput{RequestID: id}
				req, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				out.Stored = fmt.Sprintf("%s@%d", req.Status, req.CurrentStepIndex)

				state, match, err := svc.Replay(ctx, id)
				if err != nil {
					out.Error = err.Error()
				} else {
					out.Replayed = fmt.Sprintf("%s@%d", state.Status, state.StepIndex)
					out.Status = state.Status
				}
				out.Match = match
				if !match {
					mismatches++
				}
				outputs = append(outputs, out)
			}

			if err := writeJSON(outputs); err != nil {
				return err
			}
			if mismatches > 0 {
				return fmt.Errorf("%d of %d requests diverge from their log", mismatches, len(ids))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Check every request")
	return cmd
}
