// Copyright 2024 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/binkynet/FastPWM/pkg/service"
	"github.com/binkynet/FastPWM/pkg/timer4"
)

// SetPinRequest is the body of PUT /api/v1/pins/:pin.
type SetPinRequest struct {
	Value *uint16 `json:"value"`
}

// BeginPinRequest is the body of POST /api/v1/pins/:pin/begin.
type BeginPinRequest struct {
	Invert bool `json:"invert"`
}

// GET /api/v1/status
func (s *Server) handleGetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Status())
}

// GET /api/v1/pins/:pin
func (s *Server) handleGetPin(c echo.Context) error {
	pin, err := timer4.ParsePin(c.Param("pin"))
	if err != nil {
		return httpError(err)
	}
	cs, err := s.service.Channel(pin)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cs)
}

// PUT /api/v1/pins/:pin
func (s *Server) handleSetPin(c echo.Context) error {
	pin, err := timer4.ParsePin(c.Param("pin"))
	if err != nil {
		return httpError(err)
	}
	var req SetPinRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Value == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "value is required")
	}
	if err := s.service.Set(c.Request().Context(), pin, *req.Value); err != nil {
		return httpError(err)
	}
	return s.handleGetPin(c)
}

// POST /api/v1/pins/:pin/begin
func (s *Server) handleBeginPin(c echo.Context) error {
	pin, err := timer4.ParsePin(c.Param("pin"))
	if err != nil {
		return httpError(err)
	}
	var req BeginPinRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := s.service.Begin(c.Request().Context(), pin, req.Invert); err != nil {
		return httpError(err)
	}
	return s.handleGetPin(c)
}

// httpError converts the given error into an echo HTTP error.
func httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case timer4.IsInvalidPin(err), service.IsValueOutOfRange(err):
		code = http.StatusBadRequest
	case timer4.IsClockLockTimeout(err):
		code = http.StatusGatewayTimeout
	case service.IsClosed(err):
		code = http.StatusServiceUnavailable
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}
