package sim

import (
	"macrosim.com/internal/entity"
	"macrosim.com/pkg/xerr"
)

// DataProviderFunc resolves one data request kind. The value is stored in
// the requesting entity's scratch data before its decision callback runs.
type DataProviderFunc func(s *Simulation, e entity.Entity, params map[string]interface{}) (interface{}, error)

type dataKind struct {
	required []string
	fn       DataProviderFunc
}

// DataRequest names a value to gather before a decision callback fires. Only
// the simulation can construct one (NewDataRequest), which is where the kind
// and its required parameters are validated — a malformed request fails at
// the call that built it, not after an arbitrary scheduling delay.
type DataRequest struct {
	Name   string // key in the entity's scratch data
	Kind   string // registered request kind
	Params map[string]interface{}
}

// RegisterDataKind registers a request kind with its required parameter
// names and resolver. Collaborators call this during setup.
func (s *Simulation) RegisterDataKind(kind string, required []string, fn DataProviderFunc) {
	s.dataKinds[kind] = &dataKind{required: required, fn: fn}
}

// NewDataRequest validates and builds a request. Unknown kinds and missing
// required parameters are collaborator misconfiguration and fail here.
func (s *Simulation) NewDataRequest(name, kind string, params map[string]interface{}) (DataRequest, error) {
	dk, ok := s.dataKinds[kind]
	if !ok {
		return DataRequest{}, xerr.Newf(xerr.UnregisteredKind, "data request kind %q is not registered", kind)
	}
	for _, p := range dk.required {
		if _, ok := params[p]; !ok {
			return DataRequest{}, xerr.Newf(xerr.RequestParamsError, "data request %q missing parameter %q", kind, p)
		}
	}
	return DataRequest{Name: name, Kind: kind, Params: params}, nil
}

// MustDataRequest is NewDataRequest for setup-time wiring, where a bad
// request is a programming error.
func (s *Simulation) MustDataRequest(name, kind string, params map[string]interface{}) DataRequest {
	req, err := s.NewDataRequest(name, kind, params)
	if err != nil {
		panic(err)
	}
	return req
}

func (s *Simulation) resolveData(e entity.Entity, req DataRequest) (interface{}, error) {
	dk, ok := s.dataKinds[req.Kind]
	if !ok {
		return nil, xerr.Newf(xerr.UnregisteredKind, "data request kind %q is not registered", req.Kind)
	}
	return dk.fn(s, e, req.Params)
}
