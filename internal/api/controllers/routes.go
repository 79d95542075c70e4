package controllers

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine,
	auth gin.HandlerFunc,
	accountController *AccountController,
	workspaceController *WorkspaceController,
	healthController *HealthController) {

	r.GET("/healthz", healthController.Healthz)

	authGroup := r.Group("/auth")
	authGroup.POST("/signup", accountController.Signup)
	authGroup.POST("/login", accountController.Login)
	authGroup.POST("/logout", auth, accountController.Logout)

	ws := r.Group("/workspace", auth)
	ws.GET("", workspaceController.GetWorkspace)
	ws.POST("/upload", workspaceController.Upload)
	ws.POST("/reset", workspaceController.Reset)
	ws.GET("/preview", workspaceController.Preview)

	quizGroup := ws.Group("/quiz")
	quizGroup.POST("/start", workspaceController.StartQuiz)
	quizGroup.POST("/retry", workspaceController.RetryQuiz)
	quizGroup.POST("/answer", workspaceController.SelectAnswer)
	quizGroup.POST("/next", workspaceController.NextQuestion)
	quizGroup.POST("/previous", workspaceController.PreviousQuestion)
	quizGroup.POST("/submit", workspaceController.SubmitQuiz)
	quizGroup.POST("/results/toggle", workspaceController.ToggleResult)
	quizGroup.POST("/exit", workspaceController.ExitQuiz)
	quizGroup.POST("/continue", workspaceController.ContinueToStats)

	ws.POST("/stats", workspaceController.ViewStats)
	ws.POST("/stats/back", workspaceController.BackFromStats)

	ws.GET("/history", workspaceController.OpenHistory)
	ws.POST("/history/select", workspaceController.SelectHistory)
}
