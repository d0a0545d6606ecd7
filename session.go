package ucsm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/griddynamics/goucsm/transport"
)

type sessionConfig struct {
	logger         *slog.Logger
	wireLog        bool
	onRefreshError func(error)
}

type SessionOption interface {
	apply(*sessionConfig)
}

type loggerOpt struct{ l *slog.Logger }

func (o loggerOpt) apply(cfg *sessionConfig) { cfg.logger = o.l }

// WithLogger sets the logger of the session.  By default nothing is logged.
func WithLogger(l *slog.Logger) SessionOption {
	return loggerOpt{l}
}

type wireLogOpt bool

func (o wireLogOpt) apply(cfg *sessionConfig) { cfg.wireLog = bool(o) }

// WithWireLog enables logging of every request and reply document at debug
// level.  Passwords and cookies are redacted.
func WithWireLog(enable bool) SessionOption {
	return wireLogOpt(enable)
}

type refreshErrorOpt func(error)

func (o refreshErrorOpt) apply(cfg *sessionConfig) { cfg.onRefreshError = o }

// WithRefreshErrorHandler registers fn to be called, on its own goroutine,
// when a scheduled cookie refresh fails.
func WithRefreshErrorHandler(fn func(error)) SessionOption {
	return refreshErrorOpt(fn)
}

// Session is an authenticated session with a UCS Manager.  Once logged in the
// session renews its cookie in the background until Logout is called.
type Session struct {
	tr             transport.Transport
	log            *slog.Logger
	wireLog        bool
	onRefreshError func(error)

	mu            sync.Mutex
	cookie        string
	name          string
	password      *memguard.Enclave
	refreshPeriod time.Duration
	version       string
	sessionID     string
	privs         privilegeSet
	refresher     *refresher
	refreshErr    error
}

// NewSession returns an unauthenticated session using the given transport.
// Call Login before any other operation.
func NewSession(tr transport.Transport, opts ...SessionOption) *Session {
	cfg := sessionConfig{}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Session{
		tr:             tr,
		log:            cfg.logger,
		wireLog:        cfg.wireLog,
		onRefreshError: cfg.onRefreshError,
		privs:          newPrivilegeSet(),
	}
}

// authReply holds what aaaLogin and aaaRefresh have in common.
type authReply struct {
	cookie string
	period time.Duration
	privs  privilegeSet
}

func parseAuthReply(method string, root *Element) (*authReply, error) {
	if resp, _ := root.Attr("response"); resp != "yes" {
		return nil, malformed(method, "reply is not a response")
	}

	if err := checkError(method, root); err != nil {
		return nil, err
	}

	period, err := requireAttr(method, root, "outRefreshPeriod")
	if err != nil {
		return nil, err
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(period), 64)
	if err != nil || math.IsNaN(secs) || secs <= 0 || secs*float64(time.Second) >= math.MaxInt64 {
		return nil, malformed(method, "invalid outRefreshPeriod %q", period)
	}

	cookie, err := requireAttr(method, root, "outCookie")
	if err != nil {
		return nil, err
	}
	if cookie == "" {
		return nil, malformed(method, "empty outCookie")
	}

	privs, err := requireAttr(method, root, "outPriv")
	if err != nil {
		return nil, err
	}

	return &authReply{
		cookie: cookie,
		period: time.Duration(secs * float64(time.Second)),
		privs:  parsePrivileges(privs),
	}, nil
}

// Login authenticates with the appliance and starts the background cookie
// renewal.  Logging in again replaces the previous session state.
func (s *Session) Login(ctx context.Context, name, password string) error {
	const method = "aaaLogin"

	s.mu.Lock()
	old := s.refresher
	s.refresher = nil
	s.mu.Unlock()
	if old != nil {
		old.stop()
	}
	s.clear()

	req := renderRequest(method, Params{
		"inName":     name,
		"inPassword": password,
	})
	root, err := s.exchange(ctx, method, req)
	if err != nil {
		return err
	}

	reply, err := parseAuthReply(method, root)
	if err != nil {
		return err
	}

	version, err := requireAttr(method, root, "outVersion")
	if err != nil {
		return err
	}
	sessionID, err := requireAttr(method, root, "outSessionId")
	if err != nil {
		return err
	}

	r := newRefresher(s, reply.period)

	s.mu.Lock()
	s.cookie = reply.cookie
	s.refreshPeriod = reply.period
	s.privs = reply.privs
	s.version = version
	s.sessionID = sessionID
	s.name = name
	s.password = memguard.NewEnclave([]byte(password))
	s.refresher = r
	s.refreshErr = nil
	s.mu.Unlock()

	r.start()

	s.log.Info("logged in",
		slog.String("user", name),
		slog.String("version", version),
		slog.String("session_id", sessionID),
		slog.Duration("refresh_period", reply.period))
	return nil
}

// Refresh renews the session cookie using the stored credentials and
// reschedules the background renewal.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	r := s.refresher
	s.mu.Unlock()

	if r == nil {
		return ErrNotAuthenticated
	}
	return s.refresh(ctx, r)
}

// refresh renews the cookie on behalf of r.  It runs both on the caller's
// goroutine and on the renewal goroutine.  The new cookie is only stored if r
// is still the session's refresher.
func (s *Session) refresh(ctx context.Context, r *refresher) error {
	const method = "aaaRefresh"

	s.mu.Lock()
	if s.refresher != r || s.cookie == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	name, cookie, enclave := s.name, s.cookie, s.password
	s.mu.Unlock()

	password, err := openPassword(enclave)
	if err != nil {
		return &FatalError{Op: method, Err: err}
	}

	req := renderRequest(method, Params{
		"inName":     name,
		"inPassword": password,
		"inCookie":   cookie,
	})
	root, err := s.exchange(ctx, method, req)
	if err != nil {
		return err
	}

	reply, err := parseAuthReply(method, root)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.refresher != r {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.cookie = reply.cookie
	s.refreshPeriod = reply.period
	s.privs = reply.privs
	s.refreshErr = nil
	s.mu.Unlock()

	r.reset(reply.period)

	s.log.Debug("cookie refreshed", slog.Duration("refresh_period", reply.period))
	return nil
}

// refreshFailed records a failed background renewal.  The renewal stays
// stopped until the next successful Refresh or Login.
func (s *Session) refreshFailed(r *refresher, err error) {
	s.mu.Lock()
	if s.refresher != r {
		s.mu.Unlock()
		return
	}
	s.refreshErr = err
	s.mu.Unlock()

	s.log.Error("cookie refresh failed", slog.Any("error", err))
	if s.onRefreshError != nil {
		go s.onRefreshError(err)
	}
}

// Logout ends the session and returns the status reported by the appliance.
// The background renewal is stopped and all credentials are dropped even if
// the logout request fails.
func (s *Session) Logout(ctx context.Context) (string, error) {
	const method = "aaaLogout"

	s.mu.Lock()
	r := s.refresher
	s.refresher = nil
	s.mu.Unlock()

	// stop before reading the cookie so a refresh in flight can't replace it.
	if r != nil {
		r.stop()
	}

	s.mu.Lock()
	cookie := s.cookie
	s.mu.Unlock()

	defer s.clear()

	if cookie == "" {
		return "", ErrNotAuthenticated
	}

	root, err := s.exchange(ctx, method, renderRequest(method, Params{"inCookie": cookie}))
	if err != nil {
		return "", err
	}

	if resp, _ := root.Attr("response"); resp != "yes" {
		return "", malformed(method, "reply is not a response")
	}
	if err := checkError(method, root); err != nil {
		return "", err
	}

	status, err := requireAttr(method, root, "outStatus")
	if err != nil {
		return "", err
	}

	s.log.Info("logged out", slog.String("status", status))
	return status, nil
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookie = ""
	s.name = ""
	s.password = nil
	s.refreshPeriod = 0
	s.version = ""
	s.sessionID = ""
	s.privs = newPrivilegeSet()
	s.refreshErr = nil
}

// authCookie returns the current cookie or ErrNotAuthenticated.
func (s *Session) authCookie() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie == "" {
		return "", ErrNotAuthenticated
	}
	return s.cookie, nil
}

// Authenticated reports whether the session holds a cookie.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookie != ""
}

// Cookie returns the current session cookie, empty when not logged in.
func (s *Session) Cookie() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookie
}

// RefreshPeriod returns the cookie lifetime dictated by the appliance.
func (s *Session) RefreshPeriod() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshPeriod
}

// Version returns the appliance version reported at login.
func (s *Session) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// SessionID returns the session id reported at login.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Privileges returns the privileges of the logged in user in the order the
// appliance listed them.
func (s *Session) Privileges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privs.All()
}

// HasPrivilege reports whether the logged in user holds privilege p.
func (s *Session) HasPrivilege(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privs.Has(p)
}

// RefreshErr returns the error of the last failed background renewal, if the
// renewal has not succeeded since.
func (s *Session) RefreshErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshErr
}

// Do sends a raw request document and returns the parsed reply.  Unlike Call
// it neither attaches the cookie nor checks for an error reply.
func (s *Session) Do(ctx context.Context, req []byte) (*Element, error) {
	return s.exchange(ctx, "", string(req))
}

// Call issues method with params and the optional body fragments.  The
// session cookie is attached automatically and an error reply is returned as
// a *ResponseError.
func (s *Session) Call(ctx context.Context, method string, params Params, body ...string) (*Element, error) {
	cookie, err := s.authCookie()
	if err != nil {
		return nil, err
	}

	p := make(Params, len(params)+1)
	for k, v := range params {
		p[k] = v
	}
	p["cookie"] = cookie

	root, err := s.exchange(ctx, method, renderRequest(method, p, body...))
	if err != nil {
		return nil, err
	}
	if err := checkError(method, root); err != nil {
		return nil, err
	}
	return root, nil
}

// secretAttr matches the password and cookie attributes of a message.
var secretAttr = regexp.MustCompile(`\b((?:inPassword|inCookie|outCookie|cookie)=")[^"]*(")`)

func redact(msg string) string {
	return secretAttr.ReplaceAllString(msg, "${1}*****${2}")
}

func (s *Session) exchange(ctx context.Context, method string, req string) (*Element, error) {
	log := s.log.With(slog.String("request_id", uuid.NewString()))
	if method != "" {
		log = log.With(slog.String("method", method))
	}

	if s.wireLog {
		log.Debug(">>", slog.String("body", redact(req)))
	}

	reply, err := s.tr.Exchange(ctx, []byte(req))
	if err != nil {
		log.Debug("exchange failed", slog.Any("error", err))
		return nil, &FatalError{Op: method, Err: err}
	}

	if s.wireLog {
		log.Debug("<<", slog.String("body", redact(string(reply))))
	}

	root, err := ParseResponse(reply)
	if err != nil {
		var fe *FatalError
		if method != "" && errors.As(err, &fe) {
			fe.Op = method
		}
		return nil, err
	}
	return root, nil
}

func openPassword(e *memguard.Enclave) (string, error) {
	if e == nil {
		return "", nil
	}
	buf, err := e.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open stored password: %w", err)
	}
	defer buf.Destroy()

	// copy out, buf.String() is invalidated by Destroy.
	return string(buf.Bytes()), nil
}
