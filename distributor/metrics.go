package distributor

import (
	"github.com/go-kit/kit/metrics"

	"github.com/go-voidmail/voidmail/protocol"
	"github.com/go-voidmail/voidmail/store"
)

type metricsService struct {
	service       Service
	commands      metrics.Counter
	registrations metrics.Counter
	logins        metrics.Counter
	emailsSent    metrics.Counter
}

// NewMetricsService wraps a provided existing service
// with command counting capabilities.
func NewMetricsService(s Service, commands metrics.Counter, registrations metrics.Counter, logins metrics.Counter, emailsSent metrics.Counter) Service {

	return &metricsService{
		service:       s,
		commands:      commands,
		registrations: registrations,
		logins:        logins,
		emailsSent:    emailsSent,
	}
}

func (s *metricsService) Register(c *Connection, req *protocol.Request) bool {

	ok := s.service.Register(c, req)

	s.commands.With("command", protocol.CmdRegister).Add(1)
	if ok {
		s.registrations.Add(1)
	}

	return ok
}

func (s *metricsService) Login(c *Connection, req *protocol.Request) bool {

	ok := s.service.Login(c, req)

	s.commands.With("command", protocol.CmdLogin).Add(1)
	if ok {
		s.logins.Add(1)
	}

	return ok
}

func (s *metricsService) SendEmail(c *Connection, req *protocol.Request) bool {

	ok := s.service.SendEmail(c, req)

	s.commands.With("command", protocol.CmdSendEmail).Add(1)
	if ok {
		s.emailsSent.Add(1)
	}

	return ok
}

func (s *metricsService) GetEmails(c *Connection, req *protocol.Request) bool {

	ok := s.service.GetEmails(c, req)
	s.commands.With("command", protocol.CmdGetEmails).Add(1)

	return ok
}

func (s *metricsService) MarkAsViewed(c *Connection, req *protocol.Request) bool {

	ok := s.service.MarkAsViewed(c, req)
	s.commands.With("command", protocol.CmdMarkAsViewed).Add(1)

	return ok
}

func (s *metricsService) Search(c *Connection, req *protocol.Request, scope store.Scope) bool {

	ok := s.service.Search(c, req, scope)
	s.commands.With("command", req.Command).Add(1)

	return ok
}
