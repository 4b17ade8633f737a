package cronjob

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/datatypes"

	"github.com/raids-lab/approvalflow/dao/model"
	dbapproval "github.com/raids-lab/approvalflow/pkg/db/approval"
	"github.com/raids-lab/approvalflow/pkg/db/dbtest"
	"github.com/raids-lab/approvalflow/pkg/metrics"
)

func TestCronJob(t *testing.T) {
	store := dbapproval.NewDBService(dbtest.Open(t))
	ctx := context.Background()

	tmpl := &model.ApprovalTemplate{
		Name:          "leave",
		WorkflowSteps: datatypes.JSONSlice[model.WorkflowStep]{{ID: "a", Name: "A", Type: model.WorkflowStepApproval}},
	}
	if err := store.CreateTemplate(ctx, tmpl); err != nil {
		t.Fatal(err)
	}
	for _, serial := range []string{"s-1", "s-2"} {
		req := &model.ApprovalRequest{
			Serial: serial, TemplateID: tmpl.ID, RequesterID: 1,
			Status: model.ApprovalStatusPending, Version: 1,
		}
		if err := store.CreateRequest(ctx, req, &model.ApprovalLog{UserID: 1, Action: model.ApprovalActionSubmit, StepName: "A"}); err != nil {
			t.Fatal(err)
		}
	}

	Convey("RefreshStatusGauges", t, func() {
		manager := NewCronJobManager(store)
		So(manager.RefreshStatusGauges(ctx), ShouldBeNil)
		So(testutil.ToFloat64(metrics.RequestsGauge.WithLabelValues(string(model.ApprovalStatusPending))), ShouldEqual, 2)
		So(testutil.ToFloat64(metrics.RequestsGauge.WithLabelValues(string(model.ApprovalStatusApproved))), ShouldEqual, 0)
	})

	Convey("AddCronJob", t, func() {
		manager := NewCronJobManager(store)

		_, err := manager.AddCronJob("bad", "not a spec", func() {})
		So(err, ShouldNotBeNil)

		first, err := manager.AddCronJob(RefreshStatusGaugesJob, "@every 1h", func() {})
		So(err, ShouldBeNil)
		second, err := manager.AddCronJob(RefreshStatusGaugesJob, "@every 2h", func() {})
		So(err, ShouldBeNil)
		So(second, ShouldNotEqual, first)
		So(manager.GetCronjobNames(), ShouldResemble, []string{RefreshStatusGaugesJob})
		So(manager.cron.Entries(), ShouldHaveLength, 1)
	})

	Convey("Start and stop with the context", t, func() {
		manager := NewCronJobManager(store)
		runCtx, cancel := context.WithCancel(ctx)
		So(manager.Start(runCtx, "@every 1h"), ShouldBeNil)
		cancel()
		manager.StopCron()
	})
}
