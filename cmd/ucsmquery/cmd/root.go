package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	ucsm "github.com/griddynamics/goucsm"
	"github.com/griddynamics/goucsm/internal/config"
	ucsmhttp "github.com/griddynamics/goucsm/transport/http"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "ucsmquery",
	Short: "Query a UCS Manager through its XML API",
	Long: `ucsmquery logs in to a UCS Manager, runs one XML API query and logs out.

Query arguments are given as long options named after the XML API
parameters, e.g.

  ucsmquery --host ucs.example.com -l admin configFindDnsByClassId --classId computeItem`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("host", "", "UCS Manager address, host[:port]")
	f.StringP("login", "l", "admin", "login name")
	f.StringP("password", "p", "", "password, prompted for when empty")
	f.Bool("secure", false, "use HTTPS")
	f.Bool("insecure", false, "skip verification of the appliance certificate")
	f.BoolP("debug", "d", false, "log requests and replies to stderr")
	f.Duration("timeout", 30*time.Second, "time limit for the whole command")
	f.String("config", "", "config file (default ucsmquery.yaml)")

	for _, name := range []string{"host", "login", "password", "secure", "insecure", "debug", "timeout", "config"} {
		if err := v.BindPFlag(name, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// newLogger builds the logger of the tool.  Debug mode forces the debug level
// so the wire log is visible.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelWarn
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var errNoPassword = errors.New("no password given and stdin is not a terminal")

func readPassword(cfg *config.Config, prompt io.Writer) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoPassword
	}

	fmt.Fprintf(prompt, "Password for %s@%s: ", cfg.Login, cfg.Host)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pass), nil
}

// withSession logs in, runs fn and always logs out again.
func withSession(cmd *cobra.Command, vp *viper.Viper, fn func(ctx context.Context, s *ucsm.Session) error) error {
	cfg, err := config.Load(vp)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	host, port, err := cfg.HostPort()
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if cfg.Secure && cfg.Insecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	tr, err := ucsmhttp.Dial(host, port, cfg.Secure, tlsConfig)
	if err != nil {
		return err
	}
	defer tr.Close()

	password, err := readPassword(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	s := ucsm.NewSession(tr, ucsm.WithLogger(logger), ucsm.WithWireLog(cfg.Debug))
	if err := s.Login(ctx, cfg.Login, password); err != nil {
		return fmt.Errorf("login to %s failed: %w", tr.Endpoint(), err)
	}
	defer func() {
		// the command context may already be done
		lctx, lcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer lcancel()
		if _, err := s.Logout(lctx); err != nil {
			logger.Warn("logout failed", slog.Any("error", err))
		}
	}()

	return fn(ctx, s)
}
