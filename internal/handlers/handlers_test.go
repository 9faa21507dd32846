package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"expense-ledger/internal/admin"
	"expense-ledger/internal/auth"
	"expense-ledger/internal/expenses"
	"expense-ledger/internal/metrics"
	"expense-ledger/internal/models"
	"expense-ledger/internal/session"
	"expense-ledger/internal/storage"
	"expense-ledger/web"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	adminEmail    = "admin@expensetracker.com"
	adminPassword = "admin123"
)

// browser is an HTTP client with its own cookie jar that does not follow
// redirects, so tests can assert on each hop.
type browser struct {
	t      *testing.T
	client *http.Client
	base   string
}

type response struct {
	status   int
	location string
	header   http.Header
	body     string
}

func (b *browser) do(req *http.Request) response {
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		header:   resp.Header,
		body:     string(body),
	}
}

func (b *browser) get(path string) response {
	req, err := http.NewRequest(http.MethodGet, b.base+path, http.NoBody)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) response {
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

type HandlersTestSuite struct {
	suite.Suite
	db      *storage.DB
	metrics *metrics.Metrics
	server  *httptest.Server
	ctx     context.Context
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
	suite.metrics = metrics.New()

	h, err := NewHandlers(Config{
		Auth:      auth.NewService(db, adminEmail, adminPassword),
		Expenses:  expenses.NewService(db, suite.metrics),
		Admin:     admin.NewService(db),
		Sessions:  session.NewManager(session.Config{Secret: []byte("test-secret")}, nil),
		DB:        db,
		Metrics:   suite.metrics,
		Templates: web.Templates(),
	})
	require.NoError(suite.T(), err)
	suite.server = httptest.NewServer(h.Routes())
}

func (suite *HandlersTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *HandlersTestSuite) newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(suite.T(), err)
	return &browser{
		t:    suite.T(),
		base: suite.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func expenseValues(amount, category, note, date string) url.Values {
	return url.Values{"amount": {amount}, "category": {category}, "note": {note}, "date": {date}}
}

// member registers email and returns a logged-in browser.
func (suite *HandlersTestSuite) member(email string) *browser {
	b := suite.newBrowser()
	resp := b.post("/register", credentials(email, "secret1"))
	require.Equal(suite.T(), http.StatusFound, resp.status)
	require.Equal(suite.T(), "/login", resp.location)

	resp = b.post("/login", credentials(email, "secret1"))
	require.Equal(suite.T(), http.StatusFound, resp.status)
	require.Equal(suite.T(), "/", resp.location)
	return b
}

func (suite *HandlersTestSuite) adminBrowser() *browser {
	b := suite.newBrowser()
	resp := b.post("/login", credentials(adminEmail, adminPassword))
	require.Equal(suite.T(), http.StatusFound, resp.status)
	require.Equal(suite.T(), "/admin", resp.location)
	return b
}

func (suite *HandlersTestSuite) activeOf(email string) []models.Expense {
	u, err := suite.db.GetUserByEmail(suite.ctx, email)
	require.NoError(suite.T(), err)
	list, err := suite.db.ListActiveExpenses(suite.ctx, u.ID, nil)
	require.NoError(suite.T(), err)
	return list
}

func (suite *HandlersTestSuite) TestProtectedRoutesRedirectToLogin() {
	b := suite.newBrowser()
	for _, path := range []string{"/", "/pdf", "/admin", "/edit/1"} {
		resp := b.get(path)
		assert.Equal(suite.T(), http.StatusFound, resp.status, path)
		assert.Equal(suite.T(), "/login", resp.location, path)
	}

	resp := b.post("/delete/1", url.Values{})
	assert.Equal(suite.T(), "/login", resp.location)
}

func (suite *HandlersTestSuite) TestGarbageSessionCookieIsCleared() {
	b := suite.newBrowser()
	req, err := http.NewRequest(http.MethodGet, b.base+"/", http.NoBody)
	require.NoError(suite.T(), err)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not-a-token"})

	resp := b.do(req)
	assert.Equal(suite.T(), "/login", resp.location)
	assert.Contains(suite.T(), resp.header.Values("Set-Cookie")[0], "Max-Age=0")
}

func (suite *HandlersTestSuite) TestRegisterLoginAddScenario() {
	b := suite.newBrowser()

	resp := b.post("/register", credentials("a@x.com", "secret1"))
	require.Equal(suite.T(), "/login", resp.location)
	resp = b.get("/login")
	assert.Contains(suite.T(), resp.body, "Account created successfully! Please login.")

	resp = b.post("/login", credentials("a@x.com", "secret1"))
	require.Equal(suite.T(), "/", resp.location)

	resp = b.post("/", expenseValues("50", "Food", "lunch", "2024-01-01"))
	require.Equal(suite.T(), http.StatusFound, resp.status)
	require.Equal(suite.T(), "/", resp.location)

	resp = b.get("/")
	require.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Contains(suite.T(), resp.body, "Expense added successfully")
	assert.Contains(suite.T(), resp.body, "Rs. 50.00")
	assert.Contains(suite.T(), resp.body, "lunch")

	// The notice is shown once.
	resp = b.get("/")
	assert.NotContains(suite.T(), resp.body, "Expense added successfully")

	list := suite.activeOf("a@x.com")
	require.Len(suite.T(), list, 1)
	assert.Equal(suite.T(), int64(5000), list[0].Amount.Cents)
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.ExpenseOpsTotal.WithLabelValues("add", "ok")))
}

func (suite *HandlersTestSuite) TestLoginPageRedirectsWhenLoggedIn() {
	b := suite.member("a@x.com")
	resp := b.get("/login")
	assert.Equal(suite.T(), http.StatusFound, resp.status)
	assert.Equal(suite.T(), "/", resp.location)
}

func (suite *HandlersTestSuite) TestLoginFailure() {
	b := suite.newBrowser()
	resp := b.post("/login", credentials("nobody@x.com", "whatever"))
	assert.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Contains(suite.T(), resp.body, "Invalid email or password")
	assert.Contains(suite.T(), resp.body, `value="nobody@x.com"`)

	resp = b.get("/")
	assert.Equal(suite.T(), "/login", resp.location)
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.LoginsTotal.WithLabelValues("failed")))
}

func (suite *HandlersTestSuite) TestLoginFailureConsumesPendingNotice() {
	b := suite.newBrowser()
	resp := b.post("/login", credentials("", ""))
	require.Equal(suite.T(), "/login", resp.location)

	resp = b.post("/login", credentials("nobody@x.com", "whatever"))
	assert.Contains(suite.T(), resp.body, "Invalid email or password")
	assert.NotContains(suite.T(), resp.body, "Email and password are required")

	resp = b.get("/login")
	assert.NotContains(suite.T(), resp.body, "Email and password are required")
	assert.NotContains(suite.T(), resp.body, "Invalid email or password")
}

func (suite *HandlersTestSuite) TestRegisterConflicts() {
	suite.member("a@x.com")
	b := suite.newBrowser()

	resp := b.post("/register", credentials(adminEmail, "secret1"))
	assert.Equal(suite.T(), "/register", resp.location)
	assert.Contains(suite.T(), b.get("/register").body, "This email is reserved")

	resp = b.post("/register", credentials("a@x.com", "secret1"))
	assert.Equal(suite.T(), "/register", resp.location)
	assert.Contains(suite.T(), b.get("/register").body, "Email already registered")

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *HandlersTestSuite) TestRegisterValidation() {
	b := suite.newBrowser()

	b.post("/register", credentials("a@x.com", "short"))
	assert.Contains(suite.T(), b.get("/register").body, "Password must be at least 6 characters")

	b.post("/register", credentials("not-an-email", "secret1"))
	assert.Contains(suite.T(), b.get("/register").body, "Email must be a valid email address")

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)
}

func (suite *HandlersTestSuite) TestAddValidation() {
	b := suite.member("a@x.com")

	b.post("/", expenseValues("abc", "Food", "", "2024-01-01"))
	assert.Contains(suite.T(), b.get("/").body, "Error adding expense")

	b.post("/", expenseValues("10", "Food", "", "01/02/2024"))
	assert.Contains(suite.T(), b.get("/").body, "Date must be in YYYY-MM-DD format")

	b.post("/", expenseValues("10", "", "", "2024-01-01"))
	assert.Contains(suite.T(), b.get("/").body, "Category is required")

	b.post("/", expenseValues("-3", "Food", "", "2024-01-01"))
	assert.Contains(suite.T(), b.get("/").body, "Amount must be positive")

	b.post("/", expenseValues(strings.Repeat("9", 5000), "Food", "", "2024-01-01"))
	assert.Contains(suite.T(), b.get("/").body, "Amount must be at most 32 characters")

	b.post("/", expenseValues("90000000000000000", "Food", "", "2024-01-01"))
	assert.Contains(suite.T(), b.get("/").body, "Amount must not exceed 100000000000")

	assert.Empty(suite.T(), suite.activeOf("a@x.com"))
}

func (suite *HandlersTestSuite) TestMonthFilter() {
	b := suite.member("a@x.com")
	b.post("/", expenseValues("10", "Food", "", "2024-01-31"))
	b.post("/", expenseValues("20", "Food", "", "2024-02-01"))

	resp := b.get("/?month=2024-01")
	require.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Contains(suite.T(), resp.body, "Rs. 10.00")
	assert.NotContains(suite.T(), resp.body, "Rs. 20.00")
	assert.Contains(suite.T(), resp.body, `value="2024-01"`)

	resp = b.get("/")
	assert.Contains(suite.T(), resp.body, "Rs. 30.00")

	resp = b.get("/?month=2024-13")
	assert.Equal(suite.T(), http.StatusFound, resp.status)
	assert.Equal(suite.T(), "/", resp.location)
	assert.Contains(suite.T(), b.get("/").body, "Invalid month filter")
}

func (suite *HandlersTestSuite) TestEditByOwner() {
	b := suite.member("a@x.com")
	b.post("/", expenseValues("10", "Food", "", "2024-01-01"))
	e := suite.activeOf("a@x.com")[0]

	resp := b.get(fmt.Sprintf("/edit/%d", e.ID))
	require.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Contains(suite.T(), resp.body, `value="10.00"`)
	assert.Contains(suite.T(), resp.body, `value="2024-01-01"`)

	resp = b.post(fmt.Sprintf("/edit/%d", e.ID), expenseValues("12,50", "Transport", "bus", "2024-01-02"))
	assert.Equal(suite.T(), "/", resp.location)
	assert.Contains(suite.T(), b.get("/").body, "Expense updated successfully")

	got := suite.activeOf("a@x.com")[0]
	assert.Equal(suite.T(), int64(1250), got.Amount.Cents)
	assert.Equal(suite.T(), "Transport", got.Category)
	assert.Equal(suite.T(), "bus", got.Note)
	assert.Equal(suite.T(), "2024-01-02", got.Date.String())
}

func (suite *HandlersTestSuite) TestEditInvalidReturnsToForm() {
	b := suite.member("a@x.com")
	b.post("/", expenseValues("10", "Food", "", "2024-01-01"))
	e := suite.activeOf("a@x.com")[0]
	path := fmt.Sprintf("/edit/%d", e.ID)

	resp := b.post(path, expenseValues("0", "Food", "", "2024-01-01"))
	assert.Equal(suite.T(), path, resp.location)
	assert.Contains(suite.T(), b.get(path).body, "Error updating expense")
	assert.Equal(suite.T(), int64(1000), suite.activeOf("a@x.com")[0].Amount.Cents)
}

func (suite *HandlersTestSuite) TestNonOwnerIsRejected() {
	alice := suite.member("a@x.com")
	alice.post("/", expenseValues("10", "Lent", "", "2024-01-01"))
	e := suite.activeOf("a@x.com")[0]
	bob := suite.member("b@x.com")

	for _, tc := range []struct {
		method string
		path   string
		form   url.Values
	}{
		{http.MethodGet, "/edit/%d", nil},
		{http.MethodPost, "/edit/%d", expenseValues("99", "Food", "x", "2024-02-02")},
		{http.MethodPost, "/delete/%d", url.Values{}},
		{http.MethodPost, "/settle/%d", url.Values{}},
	} {
		path := fmt.Sprintf(tc.path, e.ID)
		var resp response
		if tc.method == http.MethodGet {
			resp = bob.get(path)
		} else {
			resp = bob.post(path, tc.form)
		}
		assert.Equal(suite.T(), "/", resp.location, path)
		assert.Contains(suite.T(), bob.get("/").body, "Unauthorized access", path)
	}

	after := suite.activeOf("a@x.com")
	require.Len(suite.T(), after, 1)
	assert.Equal(suite.T(), e.Amount, after[0].Amount)
	assert.Equal(suite.T(), e.Category, after[0].Category)
	assert.Equal(suite.T(), models.StatusActive, after[0].Status)
}

func (suite *HandlersTestSuite) TestUnknownExpense() {
	b := suite.member("a@x.com")

	for _, path := range []string{"/edit/999", "/edit/abc"} {
		resp := b.get(path)
		assert.Equal(suite.T(), "/", resp.location, path)
		assert.Contains(suite.T(), b.get("/").body, "Expense not found", path)
	}

	resp := b.post("/delete/999", url.Values{})
	assert.Equal(suite.T(), "/", resp.location)
	assert.Contains(suite.T(), b.get("/").body, "Expense not found")
}

func (suite *HandlersTestSuite) TestDelete() {
	b := suite.member("a@x.com")
	b.post("/", expenseValues("10", "Food", "", "2024-01-01"))
	e := suite.activeOf("a@x.com")[0]

	resp := b.post(fmt.Sprintf("/delete/%d", e.ID), url.Values{})
	assert.Equal(suite.T(), "/", resp.location)

	resp = b.get("/")
	assert.Contains(suite.T(), resp.body, "Expense deleted successfully")
	assert.Contains(suite.T(), resp.body, "Rs. 0.00")
	assert.Empty(suite.T(), suite.activeOf("a@x.com"))
}

func (suite *HandlersTestSuite) TestSettleLent() {
	b := suite.member("a@x.com")
	b.post("/", expenseValues("500", "Lent", "to Bob", "2024-01-01"))
	b.post("/", expenseValues("20", "Food", "", "2024-01-01"))
	b.get("/")

	var lent, food models.Expense
	for _, e := range suite.activeOf("a@x.com") {
		if e.Category == models.LentCategory {
			lent = e
		} else {
			food = e
		}
	}

	resp := b.post(fmt.Sprintf("/settle/%d", lent.ID), url.Values{})
	assert.Equal(suite.T(), "/", resp.location)
	resp = b.get("/")
	assert.Contains(suite.T(), resp.body, "Lent amount settled successfully")
	assert.Contains(suite.T(), resp.body, "Rs. 20.00")
	assert.NotContains(suite.T(), resp.body, "to Bob")

	b.post(fmt.Sprintf("/settle/%d", lent.ID), url.Values{})
	assert.Contains(suite.T(), b.get("/").body, "Cannot settle this expense")

	b.post(fmt.Sprintf("/settle/%d", food.ID), url.Values{})
	assert.Contains(suite.T(), b.get("/").body, "Cannot settle this expense")
	assert.Len(suite.T(), suite.activeOf("a@x.com"), 1)
}

func (suite *HandlersTestSuite) TestPDF() {
	b := suite.member("a@x.com")
	b.post("/", expenseValues("10", "Food", "", "2024-01-01"))

	resp := b.get("/pdf")
	require.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Equal(suite.T(), "application/pdf", resp.header.Get("Content-Type"))
	assert.Equal(suite.T(), "attachment; filename=expenses.pdf", resp.header.Get("Content-Disposition"))
	assert.True(suite.T(), strings.HasPrefix(resp.body, "%PDF"))
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.ReportsTotal))
}

func (suite *HandlersTestSuite) TestAdmin() {
	alice := suite.member("a@x.com")
	alice.post("/", expenseValues("10", "Food", "", "2024-01-01"))

	resp := alice.get("/admin")
	assert.Equal(suite.T(), "/", resp.location)
	assert.Contains(suite.T(), alice.get("/").body, "Access denied. Admin only.")

	admin := suite.adminBrowser()
	resp = admin.get("/admin")
	require.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Contains(suite.T(), resp.body, "Admin login successful")
	assert.Contains(suite.T(), resp.body, "a@x.com")
	assert.Contains(suite.T(), resp.body, "Rs. 10.00")

	for _, path := range []string{"/", "/pdf"} {
		resp = admin.get(path)
		assert.Equal(suite.T(), "/admin", resp.location, path)
	}
	resp = admin.get("/login")
	assert.Equal(suite.T(), "/admin", resp.location)

	// The administrator owns nothing and cannot add.
	resp = admin.post("/", expenseValues("10", "Food", "", "2024-01-01"))
	assert.Equal(suite.T(), "/admin", resp.location)
	count, err := suite.db.ExpenseCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *HandlersTestSuite) TestLogoutRevokesSession() {
	b := suite.member("a@x.com")
	u, err := url.Parse(b.base)
	require.NoError(suite.T(), err)
	var token string
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			token = c.Value
		}
	}
	require.NotEmpty(suite.T(), token)

	resp := b.get("/logout")
	assert.Equal(suite.T(), "/login", resp.location)
	assert.Contains(suite.T(), b.get("/login").body, "Logged out successfully")
	assert.Equal(suite.T(), "/login", b.get("/").location)

	// Replaying the old token does not work either.
	replay := suite.newBrowser()
	req, err := http.NewRequest(http.MethodGet, b.base+"/", http.NoBody)
	require.NoError(suite.T(), err)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	assert.Equal(suite.T(), "/login", replay.do(req).location)
}

func (suite *HandlersTestSuite) TestHealthz() {
	resp := suite.newBrowser().get("/healthz")
	assert.Equal(suite.T(), http.StatusOK, resp.status)
	assert.Equal(suite.T(), "ok\n", resp.body)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthzDatabaseDown(t *testing.T) {
	h := &Handlers{db: downDB{}}
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidationMessage(t *testing.T) {
	h, err := NewHandlers(Config{Templates: web.Templates()})
	require.NoError(t, err)

	assert.Equal(t, "Category must be at most 50 characters",
		validationMessage(h.validate.Struct(expenseForm{Amount: "1", Date: "2024-01-01", Category: strings.Repeat("x", 51)})))
	assert.Equal(t, "Amount is required",
		validationMessage(h.validate.Struct(expenseForm{Category: "Food", Date: "2024-01-01"})))
	assert.Equal(t, "Invalid form submission", validationMessage(errors.New("boom")))
}

func TestCategoryStyle(t *testing.T) {
	assert.Equal(t, "#34d399", getCategoryStyle("lent").Color)
	assert.Equal(t, "#34d399", getCategoryStyle("Lent").Color)
	assert.Equal(t, "#94a3b8", getCategoryStyle("Something else").Color)
}
