package api

import (
	"context"
	"net/http"

	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/internal/domain/model"
	"github.com/okian/gradeadjust/pkg/logger"
)

// PredictDependencies defines the interface for grade predictions.
type PredictDependencies interface {
	Predict(ctx context.Context, grade, timeTaken string) (model.Prediction, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps   PredictDependencies
	logger logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps, logger: logger.Nop()}
}

// HandlePredict handles GET /predict?grade=G&time_taken=T requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	q := r.URL.Query()

	p, err := h.deps.Predict(r.Context(), q.Get(grading.ParamGrade), q.Get(grading.ParamTimeTaken))
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			err = Wrap(op, err)
			h.logger.Error(r.Context(), "predict failed", logger.Error(err))
		} else {
			err = WrapKind(op, ErrBadRequest, err)
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
