package distributor

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/go-voidmail/voidmail/protocol"
	"github.com/go-voidmail/voidmail/store"
)

type loggingService struct {
	logger  log.Logger
	service Service
}

// NewLoggingService wraps a provided existing
// service with the provided logger.
func NewLoggingService(s Service, logger log.Logger) Service {
	return &loggingService{logger, s}
}

// Register wraps this service's Register method
// with added logging capabilities.
func (s *loggingService) Register(c *Connection, req *protocol.Request) bool {

	ok := s.service.Register(c, req)

	logger := log.With(s.logger,
		"method", protocol.CmdRegister,
		"client", c.ClientAddr,
	)

	if !ok {
		level.Info(logger).Log("msg", "connection lost while answering REGISTER")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// Login wraps this service's Login method
// with added logging capabilities.
func (s *loggingService) Login(c *Connection, req *protocol.Request) bool {

	ok := s.service.Login(c, req)

	logger := log.With(s.logger,
		"method", protocol.CmdLogin,
		"client", c.ClientAddr,
	)

	if !ok {
		level.Info(logger).Log("msg", "connection lost while answering LOGIN")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// SendEmail wraps this service's SendEmail method
// with added logging capabilities.
func (s *loggingService) SendEmail(c *Connection, req *protocol.Request) bool {

	ok := s.service.SendEmail(c, req)

	logger := log.With(s.logger,
		"method", protocol.CmdSendEmail,
		"client", c.ClientAddr,
	)

	if !ok {
		level.Info(logger).Log("msg", "connection lost while answering SENDEMAIL")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// GetEmails wraps this service's GetEmails method
// with added logging capabilities.
func (s *loggingService) GetEmails(c *Connection, req *protocol.Request) bool {

	ok := s.service.GetEmails(c, req)

	logger := log.With(s.logger,
		"method", protocol.CmdGetEmails,
		"client", c.ClientAddr,
	)

	if !ok {
		level.Info(logger).Log("msg", "connection lost while answering GETEMAILS")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// MarkAsViewed wraps this service's MarkAsViewed method
// with added logging capabilities.
func (s *loggingService) MarkAsViewed(c *Connection, req *protocol.Request) bool {

	ok := s.service.MarkAsViewed(c, req)

	logger := log.With(s.logger,
		"method", protocol.CmdMarkAsViewed,
		"client", c.ClientAddr,
	)

	if !ok {
		level.Info(logger).Log("msg", "connection lost while answering MARK_AS_VIEWED")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}

// Search wraps this service's Search method
// with added logging capabilities.
func (s *loggingService) Search(c *Connection, req *protocol.Request, scope store.Scope) bool {

	ok := s.service.Search(c, req, scope)

	logger := log.With(s.logger,
		"method", req.Command,
		"client", c.ClientAddr,
	)

	if !ok {
		level.Info(logger).Log("msg", "connection lost while answering search")
	} else {
		level.Debug(logger).Log()
	}

	return ok
}
