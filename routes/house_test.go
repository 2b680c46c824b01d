package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// buildTestApp wires the house routes against an in-memory database and a
// JWT verifier with a test secret.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.House{},
		&models.HouseMember{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	storage.DB = db

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	house := app.Party("/api/house", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		house.Post("/", CreateHouse)
		house.Post("/join", JoinHouse)
		house.Get("/{id:uint}", GetHouse)
	}

	if err := app.Build(); err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	return app
}

func signTestToken(t *testing.T, userID uint) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, err := signer.Sign(utils.AccessToken{ID: userID, Role: "user"})
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(token)
}

func doJSON(app *iris.Application, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestHouseLifecycle(t *testing.T) {
	app := buildTestApp(t)

	// Unauthenticated create is refused by the verifier.
	resp := doJSON(app, http.MethodPost, "/api/house", "", `{"name":"Mökki"}`)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	creator := signTestToken(t, 1)
	resp = doJSON(app, http.MethodPost, "/api/house", creator, `{"name":"Mökki","guestNightlyRate":20}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("create house failed: %d %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID         uint   `json:"ID"`
		InviteCode string `json:"inviteCode"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.InviteCode == "" {
		t.Fatal("expected an invite code")
	}

	// The creator became a member with the admin role.
	var membership models.HouseMember
	if err := storage.DB.Where("house_id = ? AND user_id = ?", created.ID, 1).First(&membership).Error; err != nil {
		t.Fatalf("creator membership missing: %v", err)
	}
	if membership.Role != "admin" {
		t.Fatalf("creator should be admin, got %q", membership.Role)
	}

	// A second user joins by invite code; joining twice is a conflict.
	joiner := signTestToken(t, 2)
	body := fmt.Sprintf(`{"inviteCode":%q}`, created.InviteCode)
	resp = doJSON(app, http.MethodPost, "/api/house/join", joiner, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("join failed: %d %s", resp.Code, resp.Body.String())
	}
	resp = doJSON(app, http.MethodPost, "/api/house/join", joiner, body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate join, got %d", resp.Code)
	}

	// Members can read the house; strangers cannot.
	path := fmt.Sprintf("/api/house/%d", created.ID)
	resp = doJSON(app, http.MethodGet, path, joiner, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("member read failed: %d", resp.Code)
	}
	stranger := signTestToken(t, 3)
	resp = doJSON(app, http.MethodGet, path, stranger, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", resp.Code)
	}
}
