package device

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bramburn/gnssproc/internal/port"
)

// TOPGNSSDevice implements GNSSDevice for a TOPGNSS TOP708-class serial
// receiver.
type TOPGNSSDevice struct {
	serialPort port.SerialPort
	connected  bool
	mutex      sync.Mutex
}

// NewTOPGNSSDevice creates a new TOPGNSS device
func NewTOPGNSSDevice(serialPort port.SerialPort) *TOPGNSSDevice {
	return &TOPGNSSDevice{
		serialPort: serialPort,
		connected:  false,
	}
}

// Connect establishes a connection to the device
func (d *TOPGNSSDevice) Connect(portName string, baudRate int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.connected {
		return fmt.Errorf("device already connected")
	}

	if baudRate <= 0 {
		baudRate = 38400 // Default for TOPGNSS TOP708
	}

	if err := d.serialPort.Open(portName, baudRate); err != nil {
		return fmt.Errorf("failed to connect to device: %w", err)
	}

	d.connected = true
	return nil
}

// Disconnect closes the connection to the device
func (d *TOPGNSSDevice) Disconnect() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.connected {
		return nil
	}

	if err := d.serialPort.Close(); err != nil {
		return fmt.Errorf("error disconnecting device: %w", err)
	}

	d.connected = false
	return nil
}

// IsConnected returns whether the device is connected
func (d *TOPGNSSDevice) IsConnected() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.connected
}

// VerifyConnection checks if the device is sending valid GNSS data
func (d *TOPGNSSDevice) VerifyConnection(timeout time.Duration) bool {
	if !d.IsConnected() {
		return false
	}

	buffer := make([]byte, 1024)
	endTime := time.Now().Add(timeout)

	for time.Now().Before(endTime) {
		n, err := d.serialPort.Read(buffer)
		if err != nil {
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if n > 0 {
			data := string(buffer[:n])
			if strings.Contains(data, "$GN") || strings.Contains(data, "$GP") || data[0] == 0xD3 {
				return true
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	return false
}

// ReadRaw reads raw data from the device
func (d *TOPGNSSDevice) ReadRaw(buffer []byte) (int, error) {
	if !d.IsConnected() {
		return 0, fmt.Errorf("device not connected")
	}
	return d.serialPort.Read(buffer)
}

// WriteRaw writes raw data to the device
func (d *TOPGNSSDevice) WriteRaw(data []byte) (int, error) {
	if !d.IsConnected() {
		return 0, fmt.Errorf("device not connected")
	}
	return d.serialPort.Write(data)
}

// WriteCommand sends a command to the device
func (d *TOPGNSSDevice) WriteCommand(command string) error {
	if !d.IsConnected() {
		return fmt.Errorf("device not connected")
	}

	if !strings.HasSuffix(command, "\r\n") {
		command += "\r\n"
	}

	_, err := d.serialPort.Write([]byte(command))
	return err
}

// ChangeBaudRate changes the baud rate of the connection
func (d *TOPGNSSDevice) ChangeBaudRate(baudRate int) error {
	if !d.IsConnected() {
		return fmt.Errorf("device not connected")
	}

	portName, err := d.getCurrentPortName()
	if err != nil {
		return err
	}

	if err := d.Disconnect(); err != nil {
		return err
	}
	return d.Connect(portName, baudRate)
}

// GetAvailablePorts returns a list of available serial ports
func (d *TOPGNSSDevice) GetAvailablePorts() ([]string, error) {
	return d.serialPort.ListPorts()
}

// GetPortDetails returns detailed information about available ports
func (d *TOPGNSSDevice) GetPortDetails() ([]PortDetail, error) {
	details, err := d.serialPort.GetPortDetails()
	if err != nil {
		return nil, err
	}

	var result []PortDetail
	for _, detail := range details {
		vid := uint16(0)
		pid := uint16(0)
		if detail.IsUSB {
			vid, _ = parseHexToUint16(detail.VID)
			pid, _ = parseHexToUint16(detail.PID)
		}

		result = append(result, PortDetail{
			Name:    detail.Name,
			IsUSB:   detail.IsUSB,
			VID:     vid,
			PID:     pid,
			Product: detail.Product,
		})
	}

	return result, nil
}

// getCurrentPortName is a helper method to get the current port name
func (d *TOPGNSSDevice) getCurrentPortName() (string, error) {
	return "", fmt.Errorf("unable to determine current port name, please provide it explicitly")
}

func parseHexToUint16(hexStr string) (uint16, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	val, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}
