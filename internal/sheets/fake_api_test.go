package sheets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func pkcs8PEM(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(rsaKey(t))
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func pkcs1PEM(t *testing.T) string {
	t.Helper()
	der := x509.MarshalPKCS1PrivateKey(rsaKey(t))
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

// escapeNewlines renders a PEM the way it usually sits in an env var.
func escapeNewlines(pemText string) string {
	return strings.ReplaceAll(pemText, "\n", `\n`)
}

// fakeGoogle serves the token endpoint and the subset of the values API the client uses.
type fakeGoogle struct {
	t *testing.T

	mu             sync.Mutex
	rows           [][]any
	tokenCalls     int
	assertions     []string
	tokenStatus    int
	sheetsStatus   int
	puts           []string
	authorizations []string
}

var (
	rowRange    = regexp.MustCompile(`^A(\d+):N(\d+)$`)
	statusRange = regexp.MustCompile(`^C(\d+)$`)
)

func newFakeGoogle(t *testing.T) (*fakeGoogle, *httptest.Server) {
	t.Helper()
	f := &fakeGoogle{t: t, rows: [][]any{HeaderRow}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGoogle) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/token" {
		f.serveToken(w, r)
		return
	}

	f.authorizations = append(f.authorizations, r.Header.Get("Authorization"))
	if f.sheetsStatus != 0 {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, f.sheetsStatus)
		return
	}

	const prefix = "/v4/spreadsheets/sheet-1/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)

	if strings.HasSuffix(rng, ":append") {
		var body valueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.rows = append(f.rows, body.Values...)
		writeJSON(w, map[string]any{"updates": map[string]any{"updatedRows": len(body.Values)}})
		return
	}

	sheet, cells, _ := strings.Cut(rng, "!")
	if sheet != "Quotes" {
		http.Error(w, "unknown sheet "+sheet, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, valueRange{Range: rng, Values: f.read(cells)})
	case http.MethodPut:
		var body valueRange
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.puts = append(f.puts, cells)
		if m := statusRange.FindStringSubmatch(cells); m != nil {
			n, _ := strconv.Atoi(m[1])
			f.rows[n-1][colStatus] = body.Values[0][0]
		} else if cells == "A1:N1" {
			if len(f.rows) == 0 {
				f.rows = append(f.rows, nil)
			}
			f.rows[0] = body.Values[0]
		}
		writeJSON(w, map[string]any{"updatedCells": 1})
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

func (f *fakeGoogle) read(cells string) [][]any {
	switch {
	case cells == "A:A":
		out := make([][]any, 0, len(f.rows))
		for _, row := range f.rows {
			if len(row) == 0 {
				out = append(out, []any{})
				continue
			}
			out = append(out, []any{row[0]})
		}
		return out
	case cells == "A:N":
		return f.rows
	case rowRange.MatchString(cells):
		m := rowRange.FindStringSubmatch(cells)
		n, _ := strconv.Atoi(m[1])
		if n > len(f.rows) || len(f.rows[n-1]) == 0 {
			return nil
		}
		return [][]any{f.rows[n-1]}
	}
	return nil
}

func (f *fakeGoogle) serveToken(w http.ResponseWriter, r *http.Request) {
	f.tokenCalls++
	require.NoError(f.t, r.ParseForm())
	if r.PostForm.Get("grant_type") != jwtBearerGrant {
		http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
		return
	}
	f.assertions = append(f.assertions, r.PostForm.Get("assertion"))
	if f.tokenStatus != 0 {
		http.Error(w, `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`, f.tokenStatus)
		return
	}
	writeJSON(w, map[string]any{
		"access_token": "ya29.token-" + strconv.Itoa(f.tokenCalls),
		"token_type":   "Bearer",
		"expires_in":   3599,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
