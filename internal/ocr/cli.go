package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// CLIEngine runs the tesseract binary, feeding the image on stdin.
// Useful where the native library cannot be linked.
type CLIEngine struct {
	cmd         string
	language    string
	tessdata    string
	pageSegMode int
}

// NewCLIEngine creates an engine that invokes cmd (for example
// "/usr/bin/tesseract" or "C:\Program Files\Tesseract-OCR\tesseract.exe").
func NewCLIEngine(cmd, language, tessdata string, pageSegMode int) *CLIEngine {
	if cmd == "" {
		cmd = "tesseract"
	}
	if language == "" {
		language = "eng" // Default to English
	}
	return &CLIEngine{
		cmd:         cmd,
		language:    language,
		tessdata:    tessdata,
		pageSegMode: pageSegMode,
	}
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Recognize runs `tesseract stdin stdout -l <lang>`
func (e *CLIEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	cmd := exec.CommandContext(ctx, e.cmd, e.args()...)
	cmd.Stdin = bytes.NewReader(png)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "%s: %s", e.cmd, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (e *CLIEngine) args() []string {
	args := []string{"stdin", "stdout", "-l", e.language}
	if e.tessdata != "" {
		args = append(args, "--tessdata-dir", e.tessdata)
	}
	if e.pageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(e.pageSegMode))
	}
	return args
}

// Version returns the first line of `tesseract --version`
func (e *CLIEngine) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.cmd, "--version").CombinedOutput()
	if err != nil {
		return "", eris.Wrapf(err, "%s --version", e.cmd)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
