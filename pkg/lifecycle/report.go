package lifecycle

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrorReport is the user-facing description of a fatal failure.
type ErrorReport struct {
	Title             string
	Summary           string
	Detail            string
	IsPermissionError bool
}

// describeHost is replaced in tests.
var describeHost = hostDetail

// NewErrorReport classifies err for program.
func NewErrorReport(program string, err error) ErrorReport {
	r := ErrorReport{IsPermissionError: IsPermission(err)}
	if r.IsPermissionError {
		r.Title = "Warning"
		r.Summary = fmt.Sprintf("%s encountered a permission error. This error is unrecoverable. "+
			"Make sure no other instance is running and that no internal app files are open.", program)
	} else {
		r.Title = "Fatal Error"
		r.Summary = fmt.Sprintf("There was an error while running the app %s. This error is unrecoverable. "+
			"Please submit the details to our GitHub issues page.", program)
	}
	r.Detail = buildDetail(err)
	return r
}

// Lines splits the detail for line-by-line logging.
func (r ErrorReport) Lines() []string {
	return strings.Split(strings.TrimRight(r.Detail, "\n"), "\n")
}

func buildDetail(err error) string {
	var b strings.Builder
	if err != nil {
		b.WriteString(err.Error())
		b.WriteByte('\n')
	}

	var pe *PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		b.WriteByte('\n')
		b.Write(pe.Stack)
		if pe.Stack[len(pe.Stack)-1] != '\n' {
			b.WriteByte('\n')
		}
	}

	if host := describeHost(); host != "" {
		b.WriteByte('\n')
		b.WriteString(host)
	}
	return b.String()
}

func hostDetail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if n, err := cpu.Counts(true); err == nil {
		fmt.Fprintf(&b, "cpus: %d\n", n)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "memory: %d MiB total, %d MiB available (%.1f%% used)\n",
			vm.Total>>20, vm.Available>>20, vm.UsedPercent)
	}
	return b.String()
}
