// Package bus exposes brightness control on the D-Bus session bus.
//
// Inbound, SetBrightness(index, value) enqueues a change request and returns
// its request ID. Outbound, every completed write is broadcast as a
// BrightnessWriteCompleted signal carrying the same request ID.
package bus

import (
	"context"
	"time"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	ServiceName = "io.codeberg.mutker.Ddcctl"
	ObjectPath  = dbus.ObjectPath("/io/codeberg/mutker/Ddcctl")
	Interface   = "io.codeberg.mutker.Ddcctl"

	signalWriteCompleted = Interface + ".BrightnessWriteCompleted"
	callTimeout          = 2 * time.Second

	ErrNameTaken = errors.ErrorCode("bus_name_taken")
	ErrExport    = errors.ErrorCode("bus_export_failed")
)

// Controller is the part of monitor.Controller the service needs.
type Controller interface {
	Request(ctx context.Context, index int, value uint8) (string, error)
	Snapshot(ctx context.Context) ([]monitor.Monitor, error)
	Subscribe(fn func(monitor.Completion))
}

type emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// MonitorInfo is the wire form of a monitor, signature (usyq).
type MonitorInfo struct {
	Index      uint32
	Label      string
	Brightness uint8
	Max        uint16
}

// object holds the exported methods only.
type object struct {
	ctrl Controller
}

func (o *object) ListMonitors() ([]MonitorInfo, *dbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	monitors, err := o.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, dbus.MakeFailedError(err)
	}

	infos := make([]MonitorInfo, len(monitors))
	for i, m := range monitors {
		infos[i] = MonitorInfo{
			Index:      uint32(m.Index),
			Label:      m.Label,
			Brightness: m.Brightness,
			Max:        m.Max,
		}
	}
	return infos, nil
}

func (o *object) SetBrightness(index uint32, value uint8) (string, *dbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	id, err := o.ctrl.Request(ctx, int(index), value)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return id, nil
}

// Service is the exported brightness object.
type Service struct {
	conn *dbus.Conn
	emit emitter
}

// Export claims ServiceName on conn, exports the brightness object and
// subscribes to ctrl so completions are broadcast as signals.
func Export(conn *dbus.Conn, ctrl Controller) (*Service, error) {
	errFactory := errors.New()

	obj := &object{ctrl: ctrl}
	if err := conn.Export(obj, ObjectPath, Interface); err != nil {
		return nil, errFactory.Wrap(ErrExport, err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: introspect.Methods(obj),
				Signals: []introspect.Signal{{
					Name: "BrightnessWriteCompleted",
					Args: []introspect.Arg{
						{Name: "index", Type: "u"},
						{Name: "request_id", Type: "s"},
						{Name: "value", Type: "y"},
						{Name: "ok", Type: "b"},
						{Name: "error", Type: "s"},
					},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, errFactory.Wrap(ErrExport, err)
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, errFactory.Wrap(ErrExport, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errFactory.WithData(ErrNameTaken, ServiceName)
	}

	s := &Service{conn: conn, emit: conn}
	ctrl.Subscribe(s.notify)

	logger.Info().Str("name", ServiceName).Str("path", string(ObjectPath)).Msg("D-Bus service exported")

	return s, nil
}

func (s *Service) notify(c monitor.Completion) {
	msg := ""
	if c.Err != nil {
		msg = c.Err.Error()
	}

	if err := s.emit.Emit(ObjectPath, signalWriteCompleted,
		uint32(c.Index), c.ID, c.Value, c.OK(), msg); err != nil {
		logger.Warn().Err(err).Str("request_id", c.ID).Msg("Failed to emit completion signal")
	}
}

// Close releases the bus name.
func (s *Service) Close() error {
	if _, err := s.conn.ReleaseName(ServiceName); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}
	return nil
}
