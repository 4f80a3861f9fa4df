// internal/serialio/serialio.go
package serialio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/shopspring/decimal"
)

// PortConfig describes one serial device's connection parameters, adapted
// from the teacher's SerialConfig (baud rate, data bits, stop bits, parity,
// read timeout).
type PortConfig struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

// Manager owns both serial devices (printer + scale) behind a single
// mutex, serializing access the way the original driver's single-threaded
// event loop naturally did — concurrent client goroutines in this server
// would otherwise interleave bytes on either wire.
type Manager struct {
	mu sync.Mutex

	printer     serial.Port
	printerOpen bool
	printerCfg  PortConfig

	scale     serial.Port
	scaleOpen bool
	scaleCfg  PortConfig

	logger *zap.Logger
}

// New returns a Manager with both devices configured but not yet opened.
func New(printerCfg, scaleCfg PortConfig, logger *zap.Logger) *Manager {
	return &Manager{printerCfg: printerCfg, scaleCfg: scaleCfg, logger: logger}
}

func openMode(cfg PortConfig) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: serial.StopBits(cfg.StopBits),
	}
	switch cfg.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}

// OpenPrinter opens the printer serial device. Failing to open it is fatal
// to print jobs but the manager itself still constructs successfully so a
// server can run scale-only.
func (m *Manager) OpenPrinter() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.printerOpen {
		return nil
	}
	port, err := serial.Open(m.printerCfg.Device, openMode(m.printerCfg))
	if err != nil {
		return fmt.Errorf("serialio: open printer %s: %w", m.printerCfg.Device, err)
	}
	if err := port.SetReadTimeout(m.printerCfg.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("serialio: set printer read timeout: %w", err)
	}
	m.printer = port
	m.printerOpen = true
	m.logger.Info("printer serial port opened", zap.String("device", m.printerCfg.Device))
	return nil
}

// OpenScale opens the scale serial device. Non-fatal: a scale that fails to
// open is logged and left closed, matching the original driver's behavior
// of warning rather than aborting startup when the scale is absent.
func (m *Manager) OpenScale() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scaleOpen {
		return nil
	}
	port, err := serial.Open(m.scaleCfg.Device, openMode(m.scaleCfg))
	if err != nil {
		m.logger.Warn("scale serial port not available", zap.String("device", m.scaleCfg.Device), zap.Error(err))
		return nil
	}
	if err := port.SetReadTimeout(m.scaleCfg.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("serialio: set scale read timeout: %w", err)
	}
	m.scale = port
	m.scaleOpen = true
	m.logger.Info("scale serial port opened", zap.String("device", m.scaleCfg.Device))
	return nil
}

// PrinterOpen reports whether the printer serial port is currently open.
func (m *Manager) PrinterOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.printerOpen
}

// ScaleOpen reports whether the scale serial port is currently open.
func (m *Manager) ScaleOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scaleOpen
}

// Close closes both devices.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.printerOpen && m.printer != nil {
		m.printer.Close()
		m.printerOpen = false
	}
	if m.scaleOpen && m.scale != nil {
		m.scale.Close()
		m.scaleOpen = false
	}
	return nil
}

// printerWriter adapts Manager to io.Writer for the template interpreter,
// retrying short writes until the whole buffer is written; a write that
// makes no progress is reported as an error rather than silently truncated.
type printerWriter struct{ m *Manager }

func (w printerWriter) Write(b []byte) (int, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	if !w.m.printerOpen || w.m.printer == nil {
		return 0, fmt.Errorf("serialio: printer not open")
	}
	written := 0
	for written < len(b) {
		n, err := w.m.printer.Write(b[written:])
		written += n
		if err != nil {
			return written, fmt.Errorf("serialio: printer write: %w", err)
		}
		if n == 0 {
			return written, fmt.Errorf("serialio: incomplete printer write: wrote %d of %d bytes", written, len(b))
		}
	}
	return written, nil
}

// PrinterWriter returns an io.Writer bound to the printer serial port.
func (m *Manager) PrinterWriter() io.Writer {
	return printerWriter{m: m}
}

// ReadScaleWeight sends RD_WEIGHT (0x05) and parses the response as a
// decimal kilogram value, per original_source's convert_label step 2.
func (m *Manager) ReadScaleWeight() (decimal.Decimal, error) {
	if err := m.WriteScale([]byte{0x05}); err != nil {
		return decimal.Zero, err
	}
	resp, err := m.ReadScaleResponse(200 * time.Millisecond)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(resp)
	if err != nil {
		return decimal.Zero, fmt.Errorf("serialio: scale returned non-numeric weight %q", resp)
	}
	return d, nil
}

// WriteScale writes a command (and optional payload) to the scale device.
func (m *Manager) WriteScale(b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.scaleOpen || m.scale == nil {
		return fmt.Errorf("serialio: scale not open")
	}
	_, err := m.scale.Write(b)
	if err != nil {
		return fmt.Errorf("serialio: scale write: %w", err)
	}
	return nil
}

// ReadScaleResponse reads whatever the scale has sent after waiting the
// given duration for a response, matching the original driver's
// write-then-usleep-then-read pattern. It uses a goroutine+select so a
// non-responsive scale can't hang the caller past ctx's deadline, adapted
// from the teacher's SerialConnection.Read.
func (m *Manager) ReadScaleResponse(wait time.Duration) (string, error) {
	m.mu.Lock()
	port := m.scale
	open := m.scaleOpen
	m.mu.Unlock()
	if !open || port == nil {
		return "", fmt.Errorf("serialio: scale not open")
	}

	time.Sleep(wait)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	buf := make([]byte, 64)
	done := make(chan struct {
		n   int
		err error
	}, 1)
	go func() {
		n, err := port.Read(buf)
		done <- struct {
			n   int
			err error
		}{n, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && r.err != io.EOF {
			return "", fmt.Errorf("serialio: scale read: %w", r.err)
		}
		return string(buf[:r.n]), nil
	case <-ctx.Done():
		return "", fmt.Errorf("serialio: scale read timed out")
	}
}
