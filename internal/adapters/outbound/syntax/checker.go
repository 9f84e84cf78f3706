// Package syntax checks that patched content still parses before it is
// written. Go, YAML and JSON are checked in-process; other kinds go through
// a configured external command such as "php -l".
package syntax

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	goparser "go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

const maxMessage = 300

// Checker implements domain.SyntaxChecker.
type Checker struct {
	commands       map[string][]string
	timeout        time.Duration
	requireChecker bool
	logger         *slog.Logger
}

// New builds a Checker from the syntax section of cfg.
func New(cfg domain.Config, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{
		commands:       cfg.SyntaxCommands(),
		timeout:        cfg.SyntaxTimeout(),
		requireChecker: cfg.Syntax.RequireChecker,
		logger:         logger,
	}
}

// Check returns nil when content is valid for fileKind, or when no checker
// is known for the kind.
func (c *Checker) Check(ctx context.Context, content, fileKind string) error {
	switch fileKind {
	case "go":
		return checkGo(content)
	case "yaml":
		return checkYAML(content)
	case "json":
		return checkJSON(content)
	}
	argv, ok := c.commands[fileKind]
	if !ok || len(argv) == 0 {
		return nil
	}
	return c.runExternal(ctx, argv, content, fileKind)
}

func (c *Checker) runExternal(ctx context.Context, argv []string, content, fileKind string) error {
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		if c.requireChecker {
			return domain.NewFixError(domain.KindSyntax, fmt.Sprintf("%s checker %q is not installed", fileKind, argv[0]), err)
		}
		c.logger.Warn("syntax checker not found, skipping check",
			slog.String("kind", fileKind), slog.String("checker", argv[0]))
		return nil
	}

	scratch, err := writeScratch(content, fileKind)
	if err != nil {
		return domain.NewFixError(domain.KindSyntax, "preparing syntax check", err)
	}
	defer os.Remove(scratch)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, argv[1:]...), scratch)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewFixError(domain.KindSyntax, fmt.Sprintf("%s syntax check timed out after %s", fileKind, c.timeout), nil)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return domain.NewFixError(domain.KindSyntax, checkerMessage(string(out), scratch), nil)
	}
	return domain.NewFixError(domain.KindSyntax, fmt.Sprintf("running %s", argv[0]), err)
}

func writeScratch(content, fileKind string) (string, error) {
	f, err := os.CreateTemp("", "codesnoutr-*."+fileKind)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// checkerMessage picks the first meaningful line of checker output and
// hides the scratch file path.
func checkerMessage(out, scratch string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, scratch, "patched file"))
		if line == "" || strings.HasPrefix(line, "Errors parsing") {
			continue
		}
		if len(line) > maxMessage {
			line = line[:maxMessage]
		}
		return line
	}
	return "syntax check failed"
}

func checkGo(content string) error {
	if _, err := goparser.ParseFile(token.NewFileSet(), "patched.go", content, goparser.AllErrors); err != nil {
		return domain.NewFixError(domain.KindSyntax, "", err)
	}
	return nil
}

func checkYAML(content string) error {
	var v any
	if err := yaml.Unmarshal([]byte(content), &v); err != nil {
		return domain.NewFixError(domain.KindSyntax, "", err)
	}
	return nil
}

func checkJSON(content string) error {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return domain.NewFixError(domain.KindSyntax, "", err)
	}
	return nil
}
