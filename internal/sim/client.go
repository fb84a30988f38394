package sim

import (
	"errors"
)

// ErrSimulationBusy is returned when the command mailbox is full. Callers
// retry; the driver never blocks on them.
var ErrSimulationBusy = errors.New("simulation busy: command mailbox full")

const commandMailboxSize = 64

// Command is a client request executed by the driver ahead of any scheduled
// event. Execution happens on the driver goroutine, so commands may touch
// simulation state freely.
type Command interface {
	Execute(s *Simulation) error
}

// Message is a response queued for a specific client. Delivery also happens
// on the driver goroutine, ahead of scheduled events.
type Message interface {
	Deliver(c *Client)
}

// Client is an external observer's view of the simulation. Fields are
// updated only by delivered messages.
type Client struct {
	ID        int64
	Time      float64
	IsPaused  bool
	DayLength float64
}

type queuedMessage struct {
	clientID int64
	msg      Message
}

// RegisterClient creates a client handle for an external connection.
func (s *Simulation) RegisterClient() *Client {
	s.nextClientID++
	c := &Client{ID: s.nextClientID, DayLength: s.DayLength}
	s.clients[c.ID] = c
	return c
}

// TryEnqueueCommand hands a command to the driver without blocking. Safe to
// call from other goroutines.
func (s *Simulation) TryEnqueueCommand(cmd Command) error {
	select {
	case s.commands <- cmd:
		return nil
	default:
		return ErrSimulationBusy
	}
}

// QueueMessage schedules a message for delivery to a client on the next
// driver step.
func (s *Simulation) QueueMessage(clientID int64, msg Message) {
	s.messages = append(s.messages, queuedMessage{clientID: clientID, msg: msg})
}

// PauseCommand freezes the realtime clock.
type PauseCommand struct{}

func (PauseCommand) Execute(s *Simulation) error {
	s.Pause()
	return nil
}

// UnpauseCommand resumes the realtime clock.
type UnpauseCommand struct{}

func (UnpauseCommand) Execute(s *Simulation) error {
	s.Unpause()
	return nil
}

// TimeQuery asks for the current clock state; the reply is a TimeMessage
// queued for the requesting client.
type TimeQuery struct {
	ClientID int64
}

func (q TimeQuery) Execute(s *Simulation) error {
	s.QueueMessage(q.ClientID, TimeMessage{Time: s.Time, IsPaused: s.paused})
	return nil
}

// TimeMessage reports the clock state back to a client.
type TimeMessage struct {
	Time     float64
	IsPaused bool
}

func (m TimeMessage) Deliver(c *Client) {
	c.Time = m.Time
	c.IsPaused = m.IsPaused
}
