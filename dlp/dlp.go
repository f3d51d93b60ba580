// Package dlp drives the DLP-IO8-G USB digital I/O box used as the trigger
// output.
package dlp

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"eyesync/trigger"
)

// Commands of the DLP-IO8-G ASCII protocol. Line n (1..8) goes high on the
// character '0'+n and low on the character at index n-1 of clearCommands.
const (
	pingCommand   = 0x27
	pingReply     = 'Q'
	binaryCommand = 0x5C
	clearCommands = "QWERTYUI"
)

// DefaultReadTimeout bounds the ping reply wait.
const DefaultReadTimeout = 500 * time.Millisecond

var ErrNoReply = errors.New("dlp: device did not respond to ping")

// Device is an opened DLP-IO8-G. It implements trigger.DigitalOutput and
// trigger.PatternOutput.
type Device struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

// Open opens the serial device, checks that a DLP-IO8-G answers and switches it
// to binary mode.
func Open(device string, baud int) (*Device, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("dlp: open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("dlp: %s: %w", device, err)
	}
	d, err := New(port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an already opened port. The caller keeps ownership of port on error.
func New(port io.ReadWriteCloser) (*Device, error) {
	d := &Device{port: port}
	if err := d.Ping(); err != nil {
		return nil, err
	}
	if _, err := port.Write([]byte{binaryCommand}); err != nil {
		return nil, fmt.Errorf("dlp: binary mode: %w", err)
	}
	return d, nil
}

// Ports lists the serial devices present on the machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (d *Device) Ping() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.port.Write([]byte{pingCommand}); err != nil {
		return fmt.Errorf("dlp: ping: %w", err)
	}
	buf := make([]byte, 1)
	n, err := d.port.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("dlp: ping: %w", err)
	}
	if n != 1 || buf[0] != pingReply {
		return ErrNoReply
	}
	return nil
}

func command(index int, high bool) (byte, error) {
	if index < 0 || index >= trigger.Lines {
		return 0, fmt.Errorf("dlp: line %d out of range", index)
	}
	if high {
		return byte('1' + index), nil
	}
	return clearCommands[index], nil
}

// SetPin drives line index (0-based) high or low.
func (d *Device) SetPin(index int, high bool) error {
	c, err := command(index, high)
	if err != nil {
		return err
	}
	return d.write([]byte{c})
}

// SetPattern drives all eight lines with a single write.
func (d *Device) SetPattern(p trigger.Pattern) error {
	cmd := make([]byte, 0, trigger.Lines)
	for i, high := range p {
		c, _ := command(i, high)
		cmd = append(cmd, c)
	}
	return d.write(cmd)
}

func (d *Device) ClearAll() error {
	return d.write([]byte(clearCommands))
}

func (d *Device) write(cmd []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.port.Write(cmd); err != nil {
		return fmt.Errorf("dlp: write %q: %w", cmd, err)
	}
	return nil
}

// Close clears the lines and closes the port.
func (d *Device) Close() error {
	clearErr := d.ClearAll()
	return errors.Join(clearErr, d.port.Close())
}
