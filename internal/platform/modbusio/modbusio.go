// Package modbusio implements the hardware hook contract over Modbus TCP.
//
// The supervised I/O concentrator exposes the indicator lamps, the
// transceiver control lines, and the frame windows as Modbus entities:
//
//	coils            0..2   lamp drive (info, warning, critical)
//	coil             8      radio init request
//	coil             9      transmit trigger
//	discrete input   0      link present
//	discrete input   1      radio ready
//	holding register 0..1   last alert (severity, code) for telemetry
//	holding register 16     TX frame length, 17..80 TX frame data
//	input register   16     RX frame length, 17..80 RX frame data
//
// Frame data is packed big-endian, two bytes per register. Hook failures
// never propagate as errors: lamp drive is fire-and-forget with a log
// line, radio operations report plain booleans per the hook contract.
package modbusio

import (
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/radiolink"
)

// Register and coil layout of the I/O concentrator.
const (
	coilLampInfo     = 0
	coilLampWarning  = 1
	coilLampCritical = 2
	coilRadioInit    = 8
	coilTxTrigger    = 9

	discreteLinkPresent = 0
	discreteRadioReady  = 1

	regAlertSeverity = 0
	regAlertCode     = 1

	regTxLength  = 16
	regTxData    = 17
	regRxLength  = 16
	regRxData    = 17
	frameRegisters = (radiolink.TxBufferSize + 1) / 2
)

const (
	coilOn  = 0xFF00
	coilOff = 0x0000
)

// Compile-time assertions against the hook contracts.
var (
	_ alert.IndicatorPanel  = (*Client)(nil)
	_ alert.Notifier        = (*Client)(nil)
	_ radiolink.Transceiver = (*Client)(nil)
)

// Config is the transport configuration for the concentrator endpoint.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// Client is a single TCP connection to the I/O concentrator. It serializes
// through the guard/manager callers; the goburrow handler itself is reused
// across calls.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
	log     zerolog.Logger
}

// Dial connects to the concentrator. The hook methods are usable only
// after a successful Dial.
func Dial(cfg Config, log zerolog.Logger) (*Client, error) {
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = byte(cfg.UnitID)

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
		log:     log.With().Str("component", "modbusio").Logger(),
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	return c.handler.Close()
}

// ---- alert.IndicatorPanel ----

// Info drives the info lamp coil.
func (c *Client) Info(on bool) { c.writeLamp("info", coilLampInfo, on) }

// Warning drives the warning lamp coil.
func (c *Client) Warning(on bool) { c.writeLamp("warning", coilLampWarning, on) }

// Critical drives the critical lamp coil.
func (c *Client) Critical(on bool) { c.writeLamp("critical", coilLampCritical, on) }

func (c *Client) writeLamp(name string, coil uint16, on bool) {
	value := uint16(coilOff)
	if on {
		value = coilOn
	}
	// Lamp drive has no failure path in the hook contract; a transport
	// error is logged and dropped.
	if _, err := c.client.WriteSingleCoil(coil, value); err != nil {
		c.log.Warn().Err(err).Str("lamp", name).Msg("lamp drive failed")
	}
}

// ---- alert.Notifier ----

// SendAlert publishes the (severity, code) pair to the telemetry registers.
// Best effort: a transport error is logged and dropped.
func (c *Client) SendAlert(level alert.Severity, code alert.Code) {
	payload := packRegisters([]uint16{uint16(level), uint16(code)})
	if _, err := c.client.WriteMultipleRegisters(regAlertSeverity, 2, payload); err != nil {
		c.log.Warn().Err(err).
			Str("severity", level.String()).
			Str("code", code.String()).
			Msg("alert telemetry write failed")
	}
}

// ---- radiolink.Transceiver ----

// Init pulses the radio init coil and reads the ready discrete input.
func (c *Client) Init() bool {
	if _, err := c.client.WriteSingleCoil(coilRadioInit, coilOn); err != nil {
		c.log.Warn().Err(err).Msg("radio init request failed")
		return false
	}

	bits, err := c.client.ReadDiscreteInputs(discreteRadioReady, 1)
	if err != nil {
		c.log.Warn().Err(err).Msg("radio ready read failed")
		return false
	}
	return bitAt(bits, 0)
}

// Send writes the frame into the TX window and pulses the transmit
// trigger. The guard has already bounds-checked data.
func (c *Client) Send(data []byte) bool {
	regs := make([]uint16, 1+frameRegisters)
	regs[0] = uint16(len(data))
	packFrame(regs[1:], data)

	payload := packRegisters(regs[:1+(len(data)+1)/2])
	if _, err := c.client.WriteMultipleRegisters(regTxLength, uint16(1+(len(data)+1)/2), payload); err != nil {
		c.log.Warn().Err(err).Int("length", len(data)).Msg("tx window write failed")
		return false
	}

	if _, err := c.client.WriteSingleCoil(coilTxTrigger, coilOn); err != nil {
		c.log.Warn().Err(err).Msg("tx trigger failed")
		return false
	}
	return true
}

// Receive reads the RX window length and then the frame data into buf.
func (c *Client) Receive(buf []byte) (int, bool) {
	raw, err := c.client.ReadInputRegisters(regRxLength, 1)
	if err != nil {
		c.log.Warn().Err(err).Msg("rx length read failed")
		return 0, false
	}
	regs := unpackRegisters(raw)
	if len(regs) < 1 {
		return 0, false
	}

	n := int(regs[0])
	if n == 0 {
		return 0, true
	}
	if n > len(buf) {
		c.log.Warn().Int("length", n).Int("capacity", len(buf)).Msg("rx length exceeds buffer")
		return 0, false
	}

	qty := uint16((n + 1) / 2)
	raw, err = c.client.ReadInputRegisters(regRxData, qty)
	if err != nil {
		c.log.Warn().Err(err).Msg("rx window read failed")
		return 0, false
	}

	copied := unpackFrame(buf[:n], unpackRegisters(raw))
	if copied != n {
		return 0, false
	}
	return n, true
}

// LinkStatus reads the link-present discrete input. A transport error
// reports link down.
func (c *Client) LinkStatus() bool {
	bits, err := c.client.ReadDiscreteInputs(discreteLinkPresent, 1)
	if err != nil {
		c.log.Debug().Err(err).Msg("link status read failed")
		return false
	}
	return bitAt(bits, 0)
}
