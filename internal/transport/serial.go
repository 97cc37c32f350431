package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialSource reads the RTCM byte stream from a local GNSS receiver
// attached over a serial port, grounded on the teacher's GNSSSerialPort
// (internal/port).
type SerialSource struct {
	PortName string
	BaudRate int
	Timeout  time.Duration

	port serial.Port
}

// NewSerialSource creates a SerialSource for portName at baudRate.
func NewSerialSource(portName string, baudRate int) *SerialSource {
	return &SerialSource{
		PortName: portName,
		BaudRate: baudRate,
		Timeout:  500 * time.Millisecond,
	}
}

func (s *SerialSource) Open(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: s.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(s.PortName, mode)
	if err != nil {
		return fmt.Errorf("transport: opening serial port %s: %w", s.PortName, err)
	}
	if err := p.SetReadTimeout(s.Timeout); err != nil {
		p.Close()
		return fmt.Errorf("transport: setting read timeout: %w", err)
	}
	s.port = p
	return nil
}

func (s *SerialSource) Read(ctx context.Context, buf []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("transport: serial port not open")
	}
	return s.port.Read(buf)
}

func (s *SerialSource) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
