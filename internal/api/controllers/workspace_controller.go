package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"socrat/internal/config"
	"socrat/internal/flow"
	"socrat/internal/models/domain"
	"socrat/internal/models/request_models"
	"socrat/internal/services"
	"socrat/pkg/logger"
	"socrat/pkg/middleware"
	"socrat/pkg/utils"
)

// multipart overhead allowed on top of the image limit
const formSlack = 1 << 20

type WorkspaceController struct {
	workspaceService services.WorkspaceServiceInterface
	log              *logger.Logger
	maxUpload        int64
}

func NewWorkspaceController(workspaceService services.WorkspaceServiceInterface, cfg config.Config, log *logger.Logger) *WorkspaceController {
	return &WorkspaceController{
		workspaceService: workspaceService,
		log:              log,
		maxUpload:        cfg.UploadMaxBytes,
	}
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

func (w *WorkspaceController) respond(c *gin.Context, view flow.View, err error, message string) {
	if err != nil {
		utils.HandleServiceError(c, w.log, err, view)
		return
	}
	utils.RespondSuccess(c, view, message)
}

// GetWorkspace godoc
// @Summary Current screen
// @Description Returns the learner's current screen state
// @Tags Workspace
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /workspace [get]
func (w *WorkspaceController) GetWorkspace(c *gin.Context) {
	utils.RespondSuccess(c, w.workspaceService.View(userID(c)), "")
}

func (w *WorkspaceController) Reset(c *gin.Context) {
	utils.RespondSuccess(c, w.workspaceService.Reset(userID(c)), "Ready for a new upload")
}

// Upload godoc
// @Summary Upload a syllabus image
// @Description Validates the image, extracts its topics and opens topic review
// @Tags Workspace
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Syllabus image"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /workspace/upload [post]
func (w *WorkspaceController) Upload(c *gin.Context) {
	if w.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, w.maxUpload+formSlack)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(c, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		utils.HandleServiceError(c, w.log, utils.ErrMissingFile, nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.HandleServiceError(c, w.log, utils.ErrMissingFile, nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		utils.HandleServiceError(c, w.log, utils.ErrMissingFile, nil)
		return
	}

	view, err := w.workspaceService.Upload(c.Request.Context(), userID(c), fh.Filename, data)
	w.respond(c, view, err, "Topics extracted")
}

// StartQuiz godoc
// @Summary Start a quiz
// @Description Generates an initial or adaptive quiz for the current session
// @Tags Quiz
// @Accept json
// @Produce json
// @Param request body request_models.StartQuizRequest true "Quiz type"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /workspace/quiz/start [post]
func (w *WorkspaceController) StartQuiz(c *gin.Context) {
	var req request_models.StartQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	view, err := w.workspaceService.StartQuiz(c.Request.Context(), userID(c), domain.QuizType(req.QuizType))
	w.respond(c, view, err, "Quiz ready")
}

func (w *WorkspaceController) RetryQuiz(c *gin.Context) {
	view, err := w.workspaceService.RetryQuiz(c.Request.Context(), userID(c))
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) SelectAnswer(c *gin.Context) {
	var req request_models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	view, err := w.workspaceService.SelectAnswer(userID(c), *req.QuestionIndex, *req.OptionIndex)
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) NextQuestion(c *gin.Context) {
	view, err := w.workspaceService.NextQuestion(userID(c))
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) PreviousQuestion(c *gin.Context) {
	view, err := w.workspaceService.PreviousQuestion(userID(c))
	w.respond(c, view, err, "")
}

// SubmitQuiz godoc
// @Summary Submit the quiz
// @Description Sends answers and per-question time; rejected until every question is answered
// @Tags Quiz
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Router /workspace/quiz/submit [post]
func (w *WorkspaceController) SubmitQuiz(c *gin.Context) {
	view, err := w.workspaceService.SubmitQuiz(c.Request.Context(), userID(c))
	w.respond(c, view, err, "Quiz submitted")
}

func (w *WorkspaceController) ToggleResult(c *gin.Context) {
	var req request_models.ToggleResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	view, err := w.workspaceService.ToggleResult(userID(c), *req.Index)
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) ExitQuiz(c *gin.Context) {
	view, err := w.workspaceService.ExitQuiz(userID(c))
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) ContinueToStats(c *gin.Context) {
	view, err := w.workspaceService.ContinueToStats(c.Request.Context(), userID(c))
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) ViewStats(c *gin.Context) {
	view, err := w.workspaceService.ViewStats(c.Request.Context(), userID(c))
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) BackFromStats(c *gin.Context) {
	view, err := w.workspaceService.BackFromStats(userID(c))
	w.respond(c, view, err, "")
}

// OpenHistory godoc
// @Summary Past sessions
// @Description Lists the learner's previous sessions, empty when the quiz service is unreachable
// @Tags History
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /workspace/history [get]
func (w *WorkspaceController) OpenHistory(c *gin.Context) {
	view, err := w.workspaceService.OpenHistory(c.Request.Context(), userID(c))
	w.respond(c, view, err, "")
}

func (w *WorkspaceController) SelectHistory(c *gin.Context) {
	var req request_models.SelectHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	view, err := w.workspaceService.SelectHistory(c.Request.Context(), userID(c), req.SessionID, flow.Target(req.Target))
	w.respond(c, view, err, "")
}

// Preview serves the uploaded image thumbnail, or redirects to the stored image
// for sessions restored from history.
func (w *WorkspaceController) Preview(c *gin.Context) {
	p, url, err := w.workspaceService.Preview(userID(c))
	if err != nil {
		utils.HandleServiceError(c, w.log, err, nil)
		return
	}
	if url != "" {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, p.ContentType, p.Data)
}
