package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// Method selects how an interactive login obtains its first token.
type Method string

const (
	MethodLocalServer Method = "local"
	MethodDevice      Method = "device"
)

// Opener presents the authorization URL to the user.
type Opener func(authURL string) error

// LoadOAuthConfig reads the installed-app client secrets file.
func LoadOAuthConfig(credentialsFile string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secrets %s: %w", credentialsFile, err)
	}
	oc, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secrets %s: %w", credentialsFile, err)
	}
	if oc.Endpoint.DeviceAuthURL == "" {
		oc.Endpoint.DeviceAuthURL = google.Endpoint.DeviceAuthURL
	}
	return oc, nil
}

// PrintOpener writes the authorization URL to out for the user to follow.
func PrintOpener(out io.Writer) Opener {
	return func(authURL string) error {
		_, err := fmt.Fprintf(out, "Open the following URL in your browser to authorize drivesync:\n\n%s\n\n", authURL)
		return err
	}
}

type callbackResult struct {
	code string
	err  error
}

// LocalServerFlow runs the authorization code flow with a redirect to a
// loopback listener on an ephemeral port, protected by state and PKCE.
func LocalServerFlow(ctx context.Context, oc *oauth2.Config, open Opener) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("unable to start local callback server: %w", err)
	}

	conf := *oc
	conf.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		res := callbackResult{code: q.Get("code")}
		if e := q.Get("error"); e != "" {
			res.err = fmt.Errorf("authorization denied: %s", e)
		} else if res.code == "" {
			res.err = errors.New("authorization response carried no code")
		}
		select {
		case results <- res:
		default:
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authentication complete. You may close this window.")
	})}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	if err := open(authURL); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
		}
		return tok, nil
	}
}

// ErrDeviceScope is returned when device login is asked for a scope Google
// does not grant on that flow.
var ErrDeviceScope = errors.New("scope not supported by device login")

// deviceScopes are the scopes Google allows on the limited-input device
// flow.
var deviceScopes = mapset.NewSet(
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	drive.DriveFileScope,
	drive.DriveAppdataScope,
)

// CheckDeviceScopes fails when scopes cannot be granted through device login.
func CheckDeviceScopes(scopes []string) error {
	for _, s := range scopes {
		if !deviceScopes.Contains(s) {
			return fmt.Errorf("%w: %s is not available to device login, run 'drivesync auth login' without --device, or 'drivesync config set drive_scope file' for Drive", ErrDeviceScope, s)
		}
	}
	return nil
}

// DeviceFlow runs the OAuth2 device authorization grant, printing the
// verification URL and user code to out and polling until approval. The
// client must be of the "TVs and Limited Input devices" type.
func DeviceFlow(ctx context.Context, oc *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	if err := CheckDeviceScopes(oc.Scopes); err != nil {
		return nil, err
	}
	da, err := oc.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device code request failed, device login needs a 'TVs and Limited Input devices' OAuth client: %w", err)
	}

	fmt.Fprintf(out, "\nTo sign in, open: %s\n", da.VerificationURI)
	fmt.Fprintf(out, "Enter code: %s\n\n", da.UserCode)

	tok, err := oc.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
