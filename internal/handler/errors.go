package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/internal/resputil"
	"github.com/raids-lab/approvalflow/pkg/approval"
	"github.com/raids-lab/approvalflow/pkg/metrics"
)

var errorStatus = []struct {
	target   error
	httpCode int
	code     resputil.ErrorCode
}{
	{approval.ErrNotFound, http.StatusNotFound, resputil.ResourceNotFound},
	// InvalidTemplate may wrap a condition error, so it is matched first.
	{approval.ErrInvalidTemplate, http.StatusUnprocessableEntity, resputil.InvalidTemplate},
	{approval.ErrInvalidStep, http.StatusUnprocessableEntity, resputil.InvalidStep},
	{approval.ErrInvalidCondition, http.StatusUnprocessableEntity, resputil.InvalidCondition},
	{approval.ErrValidation, http.StatusBadRequest, resputil.ValidationFailed},
	{approval.ErrInvalidAction, http.StatusBadRequest, resputil.InvalidAction},
	{approval.ErrConflict, http.StatusConflict, resputil.Conflict},
	{approval.ErrNotActionable, http.StatusConflict, resputil.NotActionable},
}

// serviceError writes err with the status matching its sentinel; anything
// else is a 500.
func serviceError(c *gin.Context, err error) {
	if errors.Is(err, approval.ErrConflict) {
		metrics.ConflictsTotal.Inc()
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			resputil.HTTPError(c, e.httpCode, err.Error(), e.code)
			return
		}
	}
	klog.Errorf("approval service failed, path: %s, err: %v", c.FullPath(), err)
	resputil.Error(c, err.Error(), resputil.NotSpecified)
}
