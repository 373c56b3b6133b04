package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	gormModels "github.com/nutriplan/planner/internal/infrastructure/persistence/gorm"
	"github.com/nutriplan/planner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

// PlanctlTestSuite runs the command line against a seeded SQLite file and a
// fake OpenAI-compatible endpoint
type PlanctlTestSuite struct {
	suite.Suite
	dir        string
	dbPath     string
	configPath string
	model      *httptest.Server
	answer     string
}

func (suite *PlanctlTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.dbPath = filepath.Join(suite.dir, "nutriplan.db")
	suite.answer = `{"nombre_persona": "Ana", "dias": []}`

	suite.model = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": suite.answer}}},
		})
	}))
	suite.T().Cleanup(suite.model.Close)

	suite.configPath = filepath.Join(suite.dir, "config.yaml")
	body := fmt.Sprintf(`
app:
  environment: test
  log_level: error
database:
  driver: sqlite
  path: %q
  seed: true
ai:
  providers: [openai]
  openai_api_key: test-key
  openai_base_url: %q
`, suite.dbPath, suite.model.URL)
	suite.Require().NoError(os.WriteFile(suite.configPath, []byte(body), 0o600))
}

func (suite *PlanctlTestSuite) run(args ...string) (int, envelope) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-config", suite.configPath}, args...), &stdout, &stderr)

	var out envelope
	if stdout.Len() > 0 {
		suite.Require().NoError(json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	}
	return code, out
}

func (suite *PlanctlTestSuite) userID(email string) uuid.UUID {
	db, err := gorm.Open(sqlite.Open(suite.dbPath), &gorm.Config{})
	suite.Require().NoError(err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	var user gormModels.UserModel
	suite.Require().NoError(db.Where("email = ?", email).First(&user).Error)
	return user.ID
}

func (suite *PlanctlTestSuite) TestUsage() {
	suite.Run("no command", func() {
		var stderr bytes.Buffer
		code := run(context.Background(), nil, &bytes.Buffer{}, &stderr)

		suite.Equal(exitCodeUsage, code)
		suite.Contains(stderr.String(), "recipes-pending")
	})

	suite.Run("unknown command", func() {
		code, _ := suite.run("dance")

		suite.Equal(exitCodeUsage, code)
	})

	suite.Run("invalid ID is a validation failure", func() {
		code, out := suite.run("plan", "-id", "not-a-uuid")

		suite.Equal(2, code)
		suite.False(out.OK)
		suite.Equal("VALIDATION_FAILED", out.Error.Code)
	})

	suite.Run("plans needs exactly one selector", func() {
		code, out := suite.run("plans")

		suite.Equal(2, code)
		suite.Equal("VALIDATION_FAILED", out.Error.Code)
	})

	suite.Run("preferences must be an object", func() {
		code, out := suite.run("generate", "-user", uuid.NewString(), "-prefs", "[1,2]")

		suite.Equal(2, code)
		suite.Equal("VALIDATION_FAILED", out.Error.Code)
	})
}

func (suite *PlanctlTestSuite) TestMigrateRefusesSQLite() {
	code, out := suite.run("migrate", "up")

	suite.Equal(78, code)
	suite.Equal("CONFIGURATION_ERROR", out.Error.Code)
}

func (suite *PlanctlTestSuite) TestGenerateUnknownUser() {
	code, out := suite.run("generate", "-user", uuid.NewString())

	suite.Equal(4, code)
	suite.Equal("NOT_FOUND", out.Error.Code)
}

func (suite *PlanctlTestSuite) TestGenerateAndApprove() {
	// Arrange
	code, _ := suite.run("recipes-pending")
	suite.Require().Equal(exitCodeSuccess, code)
	ana := suite.userID("ana@nutriplan.mx")
	reviewer := suite.userID("revisor@nutriplan.mx")

	suite.answer = "Aquí está tu plan: " + testutils.ModelPlanJSON("Ana", []testutils.ModelMeal{
		{Type: "desayuno", Calories: 350, Dish: "Avena con frutos rojos"},
		{Type: "comida", Calories: 500, Dish: testutils.InlineDish("Tostada de aguacate", "aguacate", "pan integral")},
	})

	// Act
	code, out := suite.run("generate", "-user", ana.String(), "-prefs", `{"dias": 1}`)

	// Assert
	suite.Require().Equal(exitCodeSuccess, code, string(out.Data))
	var generated struct {
		ID                 uuid.UUID   `json:"id"`
		Status             string      `json:"status"`
		SuggestedRecipeIDs []uuid.UUID `json:"suggestedRecipeIds"`
		Days               []struct {
			Meals []json.RawMessage `json:"comidas"`
		} `json:"dias"`
	}
	suite.Require().NoError(json.Unmarshal(out.Data, &generated))
	suite.Equal("pending_review", generated.Status)
	suite.Len(generated.SuggestedRecipeIDs, 2)
	suite.Require().Len(generated.Days, 1)
	suite.Len(generated.Days[0].Meals, 2)

	suite.Run("draft awaits review", func() {
		code, out := suite.run("recipes-pending", "-sort", "kcal_desc")

		suite.Equal(exitCodeSuccess, code)
		var list struct {
			Total int64 `json:"total"`
			Data  []struct {
				Title  string `json:"title"`
				Status string `json:"status"`
			} `json:"data"`
		}
		suite.Require().NoError(json.Unmarshal(out.Data, &list))
		suite.Equal(int64(1), list.Total)
		suite.Equal("Tostada de aguacate", list.Data[0].Title)
		suite.Equal("draft", list.Data[0].Status)
	})

	suite.Run("approval cascades to the draft", func() {
		code, out := suite.run("approve", "-id", generated.ID.String(), "-reviewer", reviewer.String(), "-notes", "ok")

		suite.Equal(exitCodeSuccess, code)
		suite.Contains(string(out.Data), `"status": "approved"`)

		code, out = suite.run("recipes-pending")
		suite.Equal(exitCodeSuccess, code)
		suite.Contains(string(out.Data), `"total": 0`)
	})

	suite.Run("second approval conflicts", func() {
		code, out := suite.run("approve", "-id", generated.ID.String(), "-reviewer", reviewer.String())

		suite.Equal(5, code)
		suite.Equal("CONFLICT", out.Error.Code)
	})

	suite.Run("plans are listed for the consumer", func() {
		code, out := suite.run("plans", "-user", ana.String())

		suite.Equal(exitCodeSuccess, code)
		suite.Contains(string(out.Data), generated.ID.String())
	})
}

func TestPlanctlTestSuite(t *testing.T) {
	suite.Run(t, new(PlanctlTestSuite))
}

func TestParsePreferences(t *testing.T) {
	prefs, err := parsePreferences(`{"dias": 3, "dieta": "vegana"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"dias": float64(3), "dieta": "vegana"}, prefs)

	prefs, err = parsePreferences("  ")
	require.NoError(t, err)
	assert.Nil(t, prefs)
}
