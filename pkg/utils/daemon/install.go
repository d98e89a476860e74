package daemon

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/sirupsen/logrus"
)

var (
	unitPath = "/etc/systemd/system/phmeter.service"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=phmeter daemon
After=network.target

[Service]
Type=simple
ExecStart={{ .Executable }} daemon --config {{ .ConfigPath }} --daemon-socket {{ .SocketPath }}{{ if .LogLevel }} --log-level {{ .LogLevel }}{{ end }}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`))

// UnitOptions fill in the systemd unit.
type UnitOptions struct {
	Executable string
	ConfigPath string
	SocketPath string
	LogLevel   string
}

// RenderUnit returns the systemd unit for o.
func RenderUnit(o UnitOptions) (string, error) {
	if o.Executable == "" || o.ConfigPath == "" || o.SocketPath == "" {
		return "", fmt.Errorf("executable, config path and socket path are required")
	}
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("failed to render unit: %w", err)
	}
	return buf.String(), nil
}

// Install writes the unit for the current executable and starts it.
func Install(o UnitOptions) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	o.Executable = exePath
	unit, err := RenderUnit(o)
	if err != nil {
		return err
	}

	logrus.Infof("writing systemd unit to %s", unitPath)

	err = os.MkdirAll(filepath.Dir(unitPath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(unitPath), err)
	}

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	err = os.WriteFile(unitPath, []byte(unit), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	logrus.Infof("starting phmeter")

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", filepath.Base(unitPath))
}

func systemctl(args ...string) error {
	out, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %v failed: %w: %s", args, err, bytes.TrimSpace(out))
	}
	return nil
}
