package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/detector"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/review"
	"github.com/spdteam/dashboard-server/utils"
)

// setupTest wires the handlers against an in-memory database and returns a
// router mirroring the production route table (minus rate limits).
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	config.DB = db
	InitStores()
	sectionCache.InvalidateAll()
	studentNameCache.InvalidateAll()

	r := gin.New()
	r.GET("/health", HealthCheck)
	r.GET("/public/:vertical/:studentId", middleware.ValidateVertical(), PublicView)
	r.GET("/preview/:vertical/sections/:id", middleware.ValidateVertical(), PreviewSection)

	api := r.Group("/api")
	protected := api.Group("/", middleware.AuthJWT())
	protected.GET("/me", Me)
	protected.POST("/upload/image", UploadImage)
	protected.GET("/exports/:job_id", GetExport)

	v := protected.Group("/:vertical", middleware.ValidateVertical())
	v.GET("/sections", ListSections)
	v.POST("/sections", middleware.RequireTeacher(), CreateSection)
	v.PATCH("/sections/:id", middleware.RequireTeacher(), UpdateSection)
	v.POST("/sections/:id/share", middleware.RequireTeacher(), ShareSection)
	v.GET("/template", ListTemplate)
	v.POST("/template", middleware.RequireTeacher(), CreateQuestion)
	v.PATCH("/template/:id", middleware.RequireTeacher(), UpdateQuestion)
	v.DELETE("/template/:id", middleware.RequireTeacher(), ArchiveQuestion)
	v.POST("/publish_questions", middleware.RequireTeacher(), PublishQuestions)
	v.GET("/custom_group", ListGroups)
	v.POST("/custom_group", middleware.RequireTeacher(), CreateGroup)
	v.PATCH("/custom_group/:id", middleware.RequireTeacher(), UpdateGroup)
	v.DELETE("/custom_group/:id", middleware.RequireTeacher(), DeleteGroup)
	v.GET("/responses_by_student", GetResponsesByStudent)
	v.PUT("/responses/stage", middleware.RequireStudent(), StageResponse)
	v.POST("/responses/flush", middleware.RequireStudent(), FlushResponses)
	v.PATCH("/responses/:id", UpdateResponse)
	v.POST("/review_add_all", SyncReviews)
	v.GET("/review", GetReviews)
	v.GET("/review/progress", GetProgress)
	v.PATCH("/review/:id", middleware.RequireTeacher(), PatchReview)
	v.POST("/review/:id/submit", middleware.RequireStudent(), SubmitReview)
	v.POST("/review/:id/withdraw", middleware.RequireStudent(), WithdrawReview)
	v.POST("/review/:id/complete", middleware.RequireTeacher(), CompleteReview)
	v.POST("/review/:id/revise", middleware.RequireTeacher(), ReviseReview)
	v.POST("/review/:id/reopen", middleware.RequireTeacher(), ReopenReview)
	v.GET("/comments", GetComments)
	v.POST("/comments", CreateComment)
	v.PATCH("/comments/:id", UpdateComment)
	v.DELETE("/comments/:id", middleware.RequireTeacher(), DeleteComment)
	v.GET("/badges", GetBadges)
	v.POST("/export/:studentId", middleware.RequireTeacher(), CreateExport)

	return r
}

func makeUser(t *testing.T, name, email, role string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: email, Role: role}
	if err := config.DB.Create(&u).Error; err != nil {
		t.Fatalf("create user error: %v", err)
	}
	return u
}

func authToken(t *testing.T, u models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(strconv.FormatUint(uint64(u.ID), 10), u.Role)
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}
	return tok
}

func makeSection(t *testing.T, vertical, title string) models.Section {
	t.Helper()
	s := models.Section{Vertical: vertical, Title: title}
	if err := config.DB.Create(&s).Error; err != nil {
		t.Fatalf("create section error: %v", err)
	}
	return s
}

func makeQuestion(t *testing.T, vertical string, sectionID uint, groupID *uint, answerType string, minWords int, published bool) models.TemplateQuestion {
	t.Helper()
	q := models.TemplateQuestion{
		Vertical:    vertical,
		SectionID:   sectionID,
		GroupID:     groupID,
		Label:       "q",
		FieldName:   "field",
		AnswerType:  answerType,
		MinWords:    minWords,
		IsPublished: published,
	}
	if err := config.DB.Create(&q).Error; err != nil {
		t.Fatalf("create question error: %v", err)
	}
	return q
}

func makeResponse(t *testing.T, studentID, questionID uint, value string, wordCount int, status review.Status) models.StudentResponse {
	t.Helper()
	r := models.StudentResponse{
		StudentID:  studentID,
		QuestionID: questionID,
		Value:      value,
		WordCount:  wordCount,
		Status:     status,
	}
	if err := config.DB.Create(&r).Error; err != nil {
		t.Fatalf("create response error: %v", err)
	}
	return r
}

func makeReviewRow(t *testing.T, vertical string, studentID, sectionID uint, groupID *uint, status review.Status) models.ReviewRecord {
	t.Helper()
	rec := models.ReviewRecord{
		Vertical:  vertical,
		StudentID: studentID,
		SectionID: sectionID,
		GroupID:   groupID,
		Status:    status,
	}
	if err := config.DB.Create(&rec).Error; err != nil {
		t.Fatalf("create review record error: %v", err)
	}
	return rec
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body error: %v (body=%s)", err, w.Body.String())
	}
	return out
}

// stubDetector records calls and returns a canned verdict.
type stubDetector struct {
	calls  int
	result detector.Result
	err    error
}

func (s *stubDetector) Check(ctx context.Context, text string, studentID, questionID uint) (detector.Result, error) {
	s.calls++
	return s.result, s.err
}

func swapDetector(t *testing.T, stub detector.Client) {
	t.Helper()
	old := detector.Default
	detector.Default = stub
	t.Cleanup(func() { detector.Default = old })
}

func TestAuthRequired(t *testing.T) {
	r := setupTest(t)

	w := doJSON(r, "GET", "/api/lifemap/sections", "", nil)
	if w.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestUnknownVerticalRejected(t *testing.T) {
	r := setupTest(t)
	student := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)

	w := doJSON(r, "GET", "/api/essays/sections", authToken(t, student), nil)
	if w.Code != 404 {
		t.Fatalf("expected 404 for unknown vertical, got %d", w.Code)
	}
}

func TestMe(t *testing.T) {
	r := setupTest(t)
	student := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)

	w := doJSON(r, "GET", "/api/me", authToken(t, student), nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	if user["email"] != "ann@school.edu" {
		t.Fatalf("unexpected user payload: %v", user)
	}
}
