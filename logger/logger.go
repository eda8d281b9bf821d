package logger

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/gosuri/uilive"
	"github.com/seventv/cloudctl/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type writer struct {
	out *uilive.Writer
}

var (
	mtx    sync.Mutex
	Out    io.Writer
	debug  bool
	custom io.Writer
)

func (w *writer) Write(msg []byte) (int, error) {
	defer w.out.Flush()

	// lines ending in "\r\n" replace the previous rewritable line
	if len(msg) > 2 && msg[len(msg)-2] == '\r' {
		msg[len(msg)-2] = '\n'
		msg = msg[:len(msg)-1]

		return w.out.Write(msg)
	}

	return w.out.Bypass().Write(msg)
}

func init() {
	setupLogger(false, nil)
}

func setupLogger(dbg bool, out io.Writer) {
	mtx.Lock()
	defer mtx.Unlock()

	debug = dbg
	custom = out

	cfg := zap.NewProductionConfig()

	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05,000")
	cfg.EncoderConfig.ConsoleSeparator = " "
	cfg.EncoderConfig.StacktraceKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if dbg {
		lvl = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.EncoderConfig.CallerKey = ""
		cfg.EncoderConfig.LevelKey = ""
		cfg.EncoderConfig.TimeKey = ""
	}

	if color.NoColor {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	switch {
	case out != nil:
		Out = out
	case constants.StderrInTerm():
		uilive.Out = color.Error
		Out = &writer{out: uilive.New()}
	default:
		Out = color.Error
	}

	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg.EncoderConfig),
		zapcore.AddSync(Out),
		lvl,
	))

	zap.ReplaceGlobals(logger)
}

func current() (bool, io.Writer) {
	mtx.Lock()
	defer mtx.Unlock()

	return debug, custom
}

func SetDebug(dbg bool) {
	_, out := current()
	setupLogger(dbg, out)
}

// SetOutput sends all log output to out without terminal rewriting. A nil out
// restores the default stderr writer.
func SetOutput(out io.Writer) {
	dbg, _ := current()
	setupLogger(dbg, out)
}

func SetNoColor(noColor bool) {
	color.NoColor = noColor
	setupLogger(current())
}

func IsDebug() bool {
	dbg, _ := current()
	return dbg
}

func Debug(args ...any) {
	zap.S().Debugf("%s %s", color.New(color.Bold, color.FgBlack).Sprint(":"), color.MagentaString(fmt.Sprint(args...)))
}

func Debugf(format string, args ...any) {
	zap.S().Debugf("%s %s", color.New(color.Bold, color.FgBlack).Sprint(":"), color.MagentaString(format, args...))
}

func Info(args ...any) {
	zap.S().Infof("%s %s", color.New(color.Bold, color.FgBlack).Sprint(">"), color.WhiteString(fmt.Sprint(args...)))
}

func Infof(format string, args ...any) {
	zap.S().Infof("%s %s", color.New(color.Bold, color.FgBlack).Sprint(">"), color.WhiteString(format, args...))
}

func Warn(args ...any) {
	zap.S().Warnf("%s %s", color.New(color.Bold, color.FgBlack).Sprint("->"), color.YellowString(fmt.Sprint(args...)))
}

func Warnf(format string, args ...any) {
	zap.S().Warnf("%s %s", color.New(color.Bold, color.FgBlack).Sprint("->"), color.YellowString(format, args...))
}

func Error(args ...any) {
	zap.S().Errorf("%s %s", color.New(color.Bold, color.FgBlack).Sprint("=>"), color.RedString(fmt.Sprint(args...)))
}

func Errorf(format string, args ...any) {
	zap.S().Errorf("%s %s", color.New(color.Bold, color.FgBlack).Sprint("=>"), color.RedString(format, args...))
}
