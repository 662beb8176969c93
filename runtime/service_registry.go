// Package runtime manages the lifecycle of the long running services of the
// beacon-ingest node.
package runtime

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

var (
	// ErrServiceExists is returned when a service of the same type is registered twice.
	ErrServiceExists = errors.New("service already exists")
	// ErrUnknownService is returned when fetching a service type that was never registered.
	ErrUnknownService = errors.New("unknown service")
)

// Service is a long running part of the node.
type Service interface {
	// Start spawns the goroutines of the service. It must not block.
	Start()
	// Stop terminates the goroutines of the service and waits for them.
	Stop() error
	// Status returns an error when the service is unhealthy.
	Status() error
}

// ServiceRegistry holds one service per concrete type, in registration order.
// Services registered later may depend on services registered earlier, so they
// are started in order and stopped in reverse.
type ServiceRegistry struct {
	services map[reflect.Type]Service
	order    []reflect.Type
}

// NewServiceRegistry returns an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}
}

// RegisterService adds service to the registry.
func (s *ServiceRegistry) RegisterService(service Service) error {
	kind := reflect.TypeOf(service)
	if _, ok := s.services[kind]; ok {
		return errors.Wrapf(ErrServiceExists, "%v", kind)
	}
	s.services[kind] = service
	s.order = append(s.order, kind)
	return nil
}

// FetchService sets the value pointed to by service to the registered service of
// the same type. service must be a pointer to a registered service type.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	v := reflect.ValueOf(service)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errors.Errorf("input must be a non-nil pointer, received %T", service)
	}
	elem := v.Elem()
	running, ok := s.services[elem.Type()]
	if !ok {
		return errors.Wrapf(ErrUnknownService, "%v", elem.Type())
	}
	elem.Set(reflect.ValueOf(running))
	return nil
}

// StartAll starts every service in registration order.
func (s *ServiceRegistry) StartAll() {
	log.WithField("services", len(s.order)).Debug("Starting services")
	for _, kind := range s.order {
		log.Debugf("Starting service type %v", kind)
		s.services[kind].Start()
	}
}

// StopAll stops every service in reverse registration order. All services are
// stopped even when some fail; the failures are returned together.
func (s *ServiceRegistry) StopAll() error {
	var failed []string
	for i := len(s.order) - 1; i >= 0; i-- {
		kind := s.order[i]
		if err := s.services[kind].Stop(); err != nil {
			log.WithError(err).Errorf("Could not stop service %v", kind)
			failed = append(failed, kind.String()+": "+err.Error())
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("could not stop %d services: %s", len(failed), strings.Join(failed, "; "))
	}
	return nil
}

// Statuses returns the status of every service keyed by its type.
func (s *ServiceRegistry) Statuses() map[reflect.Type]error {
	m := make(map[reflect.Type]error, len(s.order))
	for _, kind := range s.order {
		m[kind] = s.services[kind].Status()
	}
	return m
}
