package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/domain/types"
)

var (
	headerColor = color.New(color.Bold, color.Underline)
	nameColor   = color.New(color.FgCyan)
	onColor     = color.New(color.FgGreen, color.Bold)
	offColor    = color.New(color.Faint)
	warnColor   = color.New(color.FgYellow)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}

func printPorts(w io.Writer, ports []model.PortInfo) {
	if len(ports) == 0 {
		warnColor.Fprintln(w, "No serial ports found")
		return
	}

	width := len("PORT")
	for _, p := range ports {
		width = max(width, len(p.Name))
	}

	headerColor.Fprintf(w, "%-*s", width, "PORT")
	fmt.Fprint(w, "  ")
	headerColor.Fprintln(w, "DRIVER")
	for _, p := range ports {
		driver := p.Driver
		if driver == "" {
			driver = "-"
		}
		nameColor.Fprintf(w, "%-*s", width, p.Name)
		fmt.Fprintf(w, "  %s\n", driver)
	}
}

func printBaudRates(w io.Writer, rates []types.BaudRate) {
	for _, rate := range rates {
		if rate.IsStandard() {
			nameColor.Fprintln(w, rate.String())
		} else {
			fmt.Fprintln(w, rate.String())
		}
	}
}

func printStatus(w io.Writer, status *model.PortStatus) {
	port := status.Info.Name
	if status.Info.Driver != "" {
		port += " (" + status.Info.Driver + ")"
	}

	fmt.Fprintf(w, "Port:         %s\n", nameColor.Sprint(port))
	fmt.Fprintf(w, "Settings:     %s\n", status.Settings.Frame())
	fmt.Fprintf(w, "Flow control: %s\n", status.Settings.FlowControl)
	fmt.Fprintf(w, "Timeout:      %s\n", status.Settings.Timeout)

	if status.Lines == nil {
		fmt.Fprintf(w, "Lines:        %s\n", warnColor.Sprintf("unavailable (%s)", status.LinesError))
		return
	}
	fmt.Fprintf(w, "Lines:        CTS=%s DSR=%s RI=%s CD=%s\n",
		lineState(status.Lines.CTS),
		lineState(status.Lines.DSR),
		lineState(status.Lines.RI),
		lineState(status.Lines.CD),
	)
}

func printCapture(w io.Writer, result *model.CaptureResult) {
	fmt.Fprintf(w, "Session:  %s\n", nameColor.Sprint(result.SessionID))
	fmt.Fprintf(w, "Port:     %s\n", result.Port)
	fmt.Fprintf(w, "Bytes:    %d\n", result.Bytes)
	fmt.Fprintf(w, "Duration: %s\n", result.EndedAt.Sub(result.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Stored:   %s\n", result.Location)
}

func lineState(on bool) string {
	if on {
		return onColor.Sprint("on")
	}
	return offColor.Sprint("off")
}
