package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/crypto/bcrypt"

	"softpet/internal/platform/config"
	"softpet/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.BcryptCost = bcrypt.MinCost

	h, err := router.NewRouter(router.Options{Config: cfg})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

// newClient simula un navegador: guarda cookies y no sigue redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestHTTP_EndToEnd_OwnershipAcrossUsers(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t)
	bob := newClient(t)

	// 1) Alice se registra: 201 + cookie, sin token en el body
	{
		res, body := doReq(t, alice, ts.URL, "POST", "/api/auth/register", map[string]any{
			"email":    "alice@example.com",
			"password": "secret1",
		})
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 register, got %d body=%s", res.StatusCode, string(body))
		}
		token := sessionCookie(t, alice, ts.URL)
		if token == "" {
			t.Fatalf("expected auth_token cookie after register")
		}
		if strings.Contains(string(body), token) {
			t.Fatalf("token must not be in the response body")
		}
		ck := findSetCookie(res, "auth_token")
		if ck == nil || !ck.HttpOnly || ck.Path != "/" || ck.MaxAge != 7*24*60*60 || ck.SameSite != http.SameSiteLaxMode {
			t.Fatalf("unexpected cookie attributes: %#v", ck)
		}
	}

	// 2) Alice crea una mascota
	petID := createPet(t, alice, ts.URL, map[string]any{
		"name":       "Rex",
		"type":       "DOG",
		"breed":      "Labrador",
		"birthDate":  "2020-01-01",
		"ownerName":  "Alice Silva",
		"ownerPhone": "(11) 91234-5678",
	})

	// 3) Bob se registra y ve la mascota de Alice en el listado
	{
		res, body := doReq(t, bob, ts.URL, "POST", "/api/auth/register", map[string]any{
			"email":    "bob@example.com",
			"password": "secret2",
		})
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 register bob, got %d body=%s", res.StatusCode, string(body))
		}
	}
	var bobID string
	{
		res, body := doReq(t, bob, ts.URL, "GET", "/api/auth/me", nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 me, got %d", res.StatusCode)
		}
		var me struct {
			User struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
		}
		_ = json.Unmarshal(body, &me)
		if me.User.Email != "bob@example.com" || me.User.ID == "" {
			t.Fatalf("unexpected me: %s", string(body))
		}
		bobID = me.User.ID
	}
	{
		res, body := doReq(t, bob, ts.URL, "GET", "/api/pets", nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 list, got %d", res.StatusCode)
		}
		var list struct {
			Pets []struct {
				ID     string `json:"id"`
				UserID string `json:"userId"`
			} `json:"pets"`
			CurrentUserID string `json:"currentUserId"`
		}
		_ = json.Unmarshal(body, &list)
		if len(list.Pets) != 1 || list.Pets[0].ID != petID {
			t.Fatalf("bob should see alice's pet, got %s", string(body))
		}
		if list.CurrentUserID != bobID || list.Pets[0].UserID == bobID {
			t.Fatalf("currentUserId must be bob and pet must belong to alice: %s", string(body))
		}
	}

	// 4) Bob no puede ver, editar ni borrar
	{
		res, body := doReq(t, bob, ts.URL, "GET", "/api/pets/"+petID, nil)
		assertError(t, res, body, http.StatusForbidden, "Acesso negado")
	}
	{
		res, body := doReq(t, bob, ts.URL, "PUT", "/api/pets/"+petID, map[string]any{
			"name":       "Hijacked",
			"type":       "CAT",
			"breed":      "X",
			"birthDate":  "2021-01-01",
			"ownerName":  "Bob Costa",
			"ownerPhone": "(11) 99999-9999",
		})
		assertError(t, res, body, http.StatusForbidden, "Você não tem permissão para editar este pet")
	}
	{
		// Basura en el body: igual 403, ownership va antes que la validación.
		res, body := doRaw(t, bob, ts.URL, "PUT", "/api/pets/"+petID, "{not json")
		assertError(t, res, body, http.StatusForbidden, "Você não tem permissão para editar este pet")
	}
	{
		res, body := doReq(t, bob, ts.URL, "DELETE", "/api/pets/"+petID, nil)
		assertError(t, res, body, http.StatusForbidden, "Você não tem permissão para deletar este pet")
	}

	// 5) El registro sigue intacto para Alice
	{
		res, body := doReq(t, alice, ts.URL, "GET", "/api/pets/"+petID, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 get by owner, got %d body=%s", res.StatusCode, string(body))
		}
		if !strings.Contains(string(body), `"name":"Rex"`) {
			t.Fatalf("pet changed after forbidden ops: %s", string(body))
		}
	}

	// 6) Alice edita y borra
	{
		res, body := doReq(t, alice, ts.URL, "PUT", "/api/pets/"+petID, map[string]any{
			"name":        "Rex II",
			"type":        "DOG",
			"breed":       "Labrador",
			"birthDate":   "2020-01-01",
			"description": "muito dócil",
			"ownerName":   "Alice Silva",
			"ownerPhone":  "(11) 91234-5678",
		})
		if res.StatusCode != http.StatusOK || !strings.Contains(string(body), `"name":"Rex II"`) {
			t.Fatalf("expected 200 update by owner, got %d body=%s", res.StatusCode, string(body))
		}
	}
	{
		res, body := doReq(t, alice, ts.URL, "DELETE", "/api/pets/"+petID, nil)
		if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "Pet deletado com sucesso") {
			t.Fatalf("expected 200 delete, got %d body=%s", res.StatusCode, string(body))
		}
	}
	{
		res, body := doReq(t, alice, ts.URL, "GET", "/api/pets/"+petID, nil)
		assertError(t, res, body, http.StatusNotFound, "Pet não encontrado")
	}
}

func TestHTTP_Auth_ErrorsAndLogout(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	// Sin cookie: 401
	{
		res, body := doReq(t, c, ts.URL, "GET", "/api/pets", nil)
		assertError(t, res, body, http.StatusUnauthorized, "Não autenticado")
	}

	// Payload inválido: 400 con detalles
	{
		res, body := doReq(t, c, ts.URL, "POST", "/api/auth/register", map[string]any{
			"email":    "nope",
			"password": "123",
		})
		assertError(t, res, body, http.StatusBadRequest, "Dados inválidos")
		if !strings.Contains(string(body), `"field":"email"`) || !strings.Contains(string(body), `"field":"password"`) {
			t.Fatalf("expected validation details, got %s", string(body))
		}
	}

	creds := map[string]any{"email": "carol@example.com", "password": "secret1"}
	if res, body := doReq(t, c, ts.URL, "POST", "/api/auth/register", creds); res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", res.StatusCode, string(body))
	}

	// Email repetido
	{
		res, body := doReq(t, newClient(t), ts.URL, "POST", "/api/auth/register", creds)
		assertError(t, res, body, http.StatusBadRequest, "Email já está em uso")
	}

	// Login: password incorrecta y usuario inexistente dan el mismo error
	{
		res, body := doReq(t, newClient(t), ts.URL, "POST", "/api/auth/login", map[string]any{
			"email": "carol@example.com", "password": "wrong1",
		})
		assertError(t, res, body, http.StatusUnauthorized, "Email ou senha inválidos")

		res, body = doReq(t, newClient(t), ts.URL, "POST", "/api/auth/login", map[string]any{
			"email": "ghost@example.com", "password": "secret1",
		})
		assertError(t, res, body, http.StatusUnauthorized, "Email ou senha inválidos")
	}

	// Login correcto desde otro "navegador"
	other := newClient(t)
	if res, body := doReq(t, other, ts.URL, "POST", "/api/auth/login", creds); res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", res.StatusCode, string(body))
	}
	if sessionCookie(t, other, ts.URL) == "" {
		t.Fatalf("expected cookie after login")
	}

	// Logout borra la cookie; después /me es 401
	{
		res, body := doReq(t, c, ts.URL, "POST", "/api/auth/logout", nil)
		if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "Logout realizado com sucesso") {
			t.Fatalf("expected 200 logout, got %d body=%s", res.StatusCode, string(body))
		}
		ck := findSetCookie(res, "auth_token")
		if ck == nil || ck.MaxAge >= 0 {
			t.Fatalf("logout must expire the cookie, got %#v", ck)
		}
		if sessionCookie(t, c, ts.URL) != "" {
			t.Fatalf("cookie still in jar after logout")
		}

		res, body = doReq(t, c, ts.URL, "GET", "/api/auth/me", nil)
		assertError(t, res, body, http.StatusUnauthorized, "Não autenticado")
	}

	// Token manipulado: anónimo
	{
		tampered := newClient(t)
		u, _ := url.Parse(ts.URL)
		tampered.Jar.SetCookies(u, []*http.Cookie{{Name: "auth_token", Value: "not.a.jwt", Path: "/"}})
		res, body := doReq(t, tampered, ts.URL, "GET", "/api/auth/me", nil)
		assertError(t, res, body, http.StatusUnauthorized, "Não autenticado")
	}

	// JSON mal formado
	{
		res, body := doRaw(t, other, ts.URL, "POST", "/api/pets", "{")
		assertError(t, res, body, http.StatusBadRequest, "Dados inválidos")
	}
}

func TestHTTP_Pets_ValidationAndSearch(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	if res, body := doReq(t, c, ts.URL, "POST", "/api/auth/register", map[string]any{
		"email": "dan@example.com", "password": "secret1",
	}); res.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", res.StatusCode, string(body))
	}

	{
		res, body := doReq(t, c, ts.URL, "POST", "/api/pets", map[string]any{
			"name": "", "type": "BIRD", "breed": "", "birthDate": "", "ownerName": "Al", "ownerPhone": "1",
		})
		assertError(t, res, body, http.StatusBadRequest, "Dados inválidos")
		for _, f := range []string{"name", "type", "breed", "birthDate", "ownerName", "ownerPhone"} {
			if !strings.Contains(string(body), `"field":"`+f+`"`) {
				t.Fatalf("expected violation for %s, got %s", f, string(body))
			}
		}
	}

	base := map[string]any{
		"type": "CAT", "breed": "Siamês", "birthDate": "2019-05-10", "ownerPhone": "(21) 98888-7777",
	}
	for _, p := range []struct{ name, owner string }{{"Mimi", "Dan Souza"}, {"Thor", "Maria Mimosa"}, {"Bolt", "Zé Carlos"}} {
		payload := map[string]any{"name": p.name, "ownerName": p.owner}
		for k, v := range base {
			payload[k] = v
		}
		createPet(t, c, ts.URL, payload)
	}

	res, body := doReq(t, c, ts.URL, "GET", "/api/pets?search=MIM", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("search: %d", res.StatusCode)
	}
	var list struct {
		Pets []struct {
			Name string `json:"name"`
		} `json:"pets"`
	}
	_ = json.Unmarshal(body, &list)
	if len(list.Pets) != 2 || list.Pets[0].Name != "Thor" || list.Pets[1].Name != "Mimi" {
		t.Fatalf("expected [Thor Mimi] newest first, got %s", string(body))
	}
}

func TestHTTP_EdgeFilterAndInfra(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	for _, path := range []string{"/dashboard", "/pets/new", "/pets/123/edit"} {
		res, _ := doReq(t, c, ts.URL, "GET", path, nil)
		if res.StatusCode != http.StatusTemporaryRedirect || res.Header.Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, res.StatusCode, res.Header.Get("Location"))
		}
	}

	for _, path := range []string{"/", "/login", "/register", "/health"} {
		res, _ := doReq(t, c, ts.URL, "GET", path, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, res.StatusCode)
		}
	}

	if res, body := doReq(t, c, ts.URL, "POST", "/api/auth/register", map[string]any{
		"email": "eve@example.com", "password": "secret1",
	}); res.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", res.StatusCode, string(body))
	}

	if res, body := doReq(t, c, ts.URL, "GET", "/dashboard", nil); res.StatusCode != http.StatusOK || !strings.Contains(string(body), "/api/pets") {
		t.Fatalf("expected dashboard with session, got %d", res.StatusCode)
	}

	{
		res, body := doReq(t, c, ts.URL, "GET", "/metrics", nil)
		if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "softpet_http_requests_total") {
			t.Fatalf("expected metrics exposition, got %d", res.StatusCode)
		}
	}
	{
		res, body := doReq(t, c, ts.URL, "GET", "/swagger/doc.json", nil)
		if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "/api/pets/{petID}") {
			t.Fatalf("expected swagger document, got %d body=%s", res.StatusCode, string(body))
		}
	}
}

func TestHTTP_EdgeFilter_RejectsBadTokens(t *testing.T) {
	ts := newTestServer(t)
	secret := config.Default().JWTSecret
	now := time.Now()

	cases := map[string]string{
		"wrong signature": signToken(t, "other-secret", now, now.Add(time.Hour)),
		"expired":         signToken(t, secret, now.Add(-8*24*time.Hour), now.Add(-24*time.Hour)),
		"garbage":         "not.a.jwt",
	}
	for name, token := range cases {
		c := newClient(t)
		u, _ := url.Parse(ts.URL)
		c.Jar.SetCookies(u, []*http.Cookie{{Name: "auth_token", Value: token, Path: "/"}})

		for _, path := range []string{"/dashboard", "/pets/new"} {
			res, _ := doReq(t, c, ts.URL, "GET", path, nil)
			if res.StatusCode != http.StatusTemporaryRedirect || res.Header.Get("Location") != "/login" {
				t.Fatalf("%s %s: expected 307 to /login, got %d %q", name, path, res.StatusCode, res.Header.Get("Location"))
			}
		}
		res, body := doReq(t, c, ts.URL, "GET", "/api/auth/me", nil)
		assertError(t, res, body, http.StatusUnauthorized, "Não autenticado")
	}

	// Control: el mismo armado con secreto y exp válidos pasa.
	c := newClient(t)
	u, _ := url.Parse(ts.URL)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: "auth_token", Value: signToken(t, secret, now, now.Add(time.Hour)), Path: "/"}})
	if res, _ := doReq(t, c, ts.URL, "GET", "/dashboard", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", res.StatusCode)
	}
}

func TestHTTP_TracingNamesSpansByRouteAndUser(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ts := newTestServer(t)
	c := newClient(t)

	if res, body := doReq(t, c, ts.URL, "POST", "/api/auth/register", map[string]any{
		"email": "fay@example.com", "password": "secret1",
	}); res.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", res.StatusCode, string(body))
	}
	petID := createPet(t, c, ts.URL, map[string]any{
		"name": "Luna", "type": "CAT", "breed": "SRD", "birthDate": "2022-03-01",
		"ownerName": "Fay Lima", "ownerPhone": "(31) 97777-6666",
	})
	if res, body := doReq(t, c, ts.URL, "GET", "/api/pets/"+petID, nil); res.StatusCode != http.StatusOK {
		t.Fatalf("get pet: %d %s", res.StatusCode, string(body))
	}

	var userID string
	{
		_, body := doReq(t, c, ts.URL, "GET", "/api/auth/me", nil)
		var me struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		_ = json.Unmarshal(body, &me)
		userID = me.User.ID
	}

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range sr.Ended() {
		if strings.Contains(s.Name(), petID) {
			t.Fatalf("span name carries a raw id: %q", s.Name())
		}
		byName[s.Name()] = s
	}

	userAttr := func(s sdktrace.ReadOnlySpan) string {
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key("softpet.user_id") {
				return kv.Value.AsString()
			}
		}
		return ""
	}

	for _, name := range []string{"POST /api/pets", "GET /api/pets/{petID}", "GET /api/auth/me"} {
		s, ok := byName[name]
		if !ok {
			t.Fatalf("missing span %q, got %v", name, keys(byName))
		}
		if got := userAttr(s); got == "" || got != userID {
			t.Fatalf("span %q: expected user %q, got %q", name, userID, got)
		}
	}
	if s, ok := byName["POST /api/auth/register"]; !ok || userAttr(s) != "" {
		t.Fatalf("anonymous register span must exist without user attribute")
	}
}

func TestNewRouter_RejectsEmptySecret(t *testing.T) {
	cfg := config.Default()
	cfg.JWTSecret = ""
	if _, err := router.NewRouter(router.Options{Config: cfg}); err == nil {
		t.Fatalf("expected error with empty JWT secret")
	}
}

func createPet(t *testing.T, c *http.Client, baseURL string, payload map[string]any) string {
	t.Helper()

	res, body := doReq(t, c, baseURL, "POST", "/api/pets", payload)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", res.StatusCode, string(body))
	}

	var resp struct {
		Pet struct {
			ID string `json:"id"`
		} `json:"pet"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Pet.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.Pet.ID
}

func assertError(t *testing.T, res *http.Response, body []byte, wantStatus int, wantMsg string) {
	t.Helper()

	if res.StatusCode != wantStatus {
		t.Fatalf("expected %d, got %d body=%s", wantStatus, res.StatusCode, string(body))
	}
	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Error != wantMsg {
		t.Fatalf("expected error %q, got %q", wantMsg, e.Error)
	}
}

func sessionCookie(t *testing.T, c *http.Client, baseURL string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "auth_token" {
			return ck.Value
		}
	}
	return ""
}

func findSetCookie(res *http.Response, name string) *http.Cookie {
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func doReq(t *testing.T, c *http.Client, baseURL, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	return send(t, c, method, baseURL+path, rdr, body != nil)
}

func doRaw(t *testing.T, c *http.Client, baseURL, method, path, raw string) (*http.Response, []byte) {
	t.Helper()
	return send(t, c, method, baseURL+path, strings.NewReader(raw), true)
}

func send(t *testing.T, c *http.Client, method, target string, rdr io.Reader, isJSON bool) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, target, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res, respBody
}

func signToken(t *testing.T, secret string, iat, exp time.Time) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "3f2b1c9e-0000-4000-8000-000000000001",
		"email":  "ghost@example.com",
		"iat":    iat.Unix(),
		"exp":    exp.Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func keys(m map[string]sdktrace.ReadOnlySpan) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
