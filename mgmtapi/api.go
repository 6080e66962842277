// Copyright 2026 SCION Association
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mgmtapi implements the http management API of a simulated network.
package mgmtapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tschsched/alice/pkg/addr"
	"github.com/tschsched/alice/pkg/ieee802154"
	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/tsch"
	"github.com/tschsched/alice/sched"
	"github.com/tschsched/alice/sim"
)

// Problem types.
const (
	BadRequest    = "/problems/bad-request"
	NotFound      = "/problems/not-found"
	Conflict      = "/problems/conflict"
	InternalError = "/problems/internal-error"
)

// Problem is an RFC 7807 problem description.
type Problem struct {
	Detail *string `json:"detail,omitempty"`
	Status int     `json:"status"`
	Title  string  `json:"title"`
	Type   *string `json:"type,omitempty"`
}

// StringRef returns a pointer to s.
func StringRef(s string) *string {
	return &s
}

// Node describes a node of the network.
type Node struct {
	Addr   addr.LinkAddr  `json:"addr"`
	Parent *addr.LinkAddr `json:"parent,omitempty"`
	Rank   *uint16        `json:"rank,omitempty"`
	Links  int            `json:"links"`
}

// NodeRequest is the body of a node creation request.
type NodeRequest struct {
	Addr   addr.LinkAddr  `json:"addr"`
	Parent *addr.LinkAddr `json:"parent,omitempty"`
}

// ParentRequest is the body of a parent update. A missing parent makes the
// node a root.
type ParentRequest struct {
	Parent *addr.LinkAddr `json:"parent,omitempty"`
}

// SelectionResponse is the result of a slot selection.
type SelectionResponse struct {
	Claimed   bool             `json:"claimed"`
	Direction *sched.Direction `json:"direction,omitempty"`
	Selection *sched.Selection `json:"selection,omitempty"`
}

// VerifyResponse is the result of a consistency check.
type VerifyResponse struct {
	Consistent bool            `json:"consistent"`
	Edges      int             `json:"edges"`
	Violations []sim.Violation `json:"violations"`
}

// Server implements the http management API.
type Server struct {
	Network *sim.Network
	Config  http.HandlerFunc
}

// Handler returns the http handler of the API.
func Handler(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
	}))
	if s.Config != nil {
		r.Get("/config", s.Config)
	}
	r.Get("/nodes", s.GetNodes)
	r.Post("/nodes", s.AddNode)
	r.Route("/nodes/{addr}", func(r chi.Router) {
		r.Get("/", s.GetNode)
		r.Delete("/", s.RemoveNode)
		r.Get("/links", s.GetLinks)
		r.Get("/active", s.GetActiveLinks)
		r.Get("/select", s.SelectSlot)
		r.Put("/parent", s.SetParent)
		r.Delete("/parent", s.Detach)
	})
	r.Get("/edges", s.GetEdges)
	r.Get("/verify", s.Verify)
	return r
}

// GetNodes lists all nodes.
func (s *Server) GetNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.Network.Nodes()
	rep := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		rep = append(rep, describe(n))
	}
	writeJSON(w, http.StatusOK, rep)
}

// AddNode adds a node and optionally attaches it to a parent.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, Problem{
			Detail: StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed request body",
			Type:   StringRef(BadRequest),
		})
		return
	}
	n, err := s.Network.AddNode(req.Addr)
	if err != nil {
		errorResponse(w, "unable to add node", err)
		return
	}
	if req.Parent != nil {
		if err := s.Network.SetParent(req.Addr, *req.Parent); err != nil {
			if rmErr := s.Network.RemoveNode(req.Addr); rmErr != nil {
				log.Error("Removing node after failed attach", "addr", req.Addr, "err", rmErr)
			}
			errorResponse(w, "unable to attach node", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, describe(n))
}

// GetNode describes a single node.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, describe(n))
}

// RemoveNode removes a node from the network.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	a, ok := linkAddrParam(w, r)
	if !ok {
		return
	}
	if err := s.Network.RemoveNode(a); err != nil {
		errorResponse(w, "unable to remove node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLinks lists the unicast links installed by a node.
func (s *Server) GetLinks(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, n.Links())
}

// GetActiveLinks lists the links of a node that are active at the ASN given
// by the asn query parameter.
func (s *Server) GetActiveLinks(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	asn, err := strconv.ParseUint(r.URL.Query().Get("asn"), 10, 64)
	if err != nil {
		ErrorResponse(w, Problem{
			Detail: StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed query parameter asn",
			Type:   StringRef(BadRequest),
		})
		return
	}
	active := n.Schedule.LinksAt(asn)
	if active == nil {
		active = []tsch.ActiveLink{}
	}
	writeJSON(w, http.StatusOK, active)
}

// SelectSlot selects the cell a node uses for a unicast data frame to the
// destination given by the dst query parameter.
func (s *Server) SelectSlot(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	dst, err := addr.ParseLinkAddr(r.URL.Query().Get("dst"))
	if err != nil {
		ErrorResponse(w, Problem{
			Detail: StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed query parameter dst",
			Type:   StringRef(BadRequest),
		})
		return
	}
	sel, claimed := n.Rule.SelectSlotForPacket(ieee802154.FrameTypeData, dst)
	rep := SelectionResponse{Claimed: claimed}
	if claimed {
		rep.Direction = &sel.Direction
		rep.Selection = &sel
	}
	writeJSON(w, http.StatusOK, rep)
}

// SetParent attaches a node to a parent, or makes it a root if the request
// carries no parent.
func (s *Server) SetParent(w http.ResponseWriter, r *http.Request) {
	a, ok := linkAddrParam(w, r)
	if !ok {
		return
	}
	var req ParentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, Problem{
			Detail: StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed request body",
			Type:   StringRef(BadRequest),
		})
		return
	}
	if req.Parent == nil {
		err := s.Network.SetRoot(a)
		if err != nil {
			errorResponse(w, "unable to set root", err)
			return
		}
	} else if err := s.Network.SetParent(a, *req.Parent); err != nil {
		errorResponse(w, "unable to set parent", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Detach detaches a node from its parent.
func (s *Server) Detach(w http.ResponseWriter, r *http.Request) {
	a, ok := linkAddrParam(w, r)
	if !ok {
		return
	}
	if err := s.Network.Detach(a); err != nil {
		errorResponse(w, "unable to detach node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEdges lists the parent child relationships of the network.
func (s *Server) GetEdges(w http.ResponseWriter, r *http.Request) {
	edges := s.Network.Edges()
	if edges == nil {
		edges = []sim.Edge{}
	}
	writeJSON(w, http.StatusOK, edges)
}

// Verify checks the consistency of the network schedule.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	violations := s.Network.Verify()
	if violations == nil {
		violations = []sim.Violation{}
	}
	writeJSON(w, http.StatusOK, VerifyResponse{
		Consistent: len(violations) == 0,
		Edges:      len(s.Network.Edges()),
		Violations: violations,
	})
}

func (s *Server) node(w http.ResponseWriter, r *http.Request) (*sim.Node, bool) {
	a, ok := linkAddrParam(w, r)
	if !ok {
		return nil, false
	}
	n, ok := s.Network.Node(a)
	if !ok {
		ErrorResponse(w, Problem{
			Detail: StringRef(a.String()),
			Status: http.StatusNotFound,
			Title:  "node not found",
			Type:   StringRef(NotFound),
		})
		return nil, false
	}
	return n, true
}

func linkAddrParam(w http.ResponseWriter, r *http.Request) (addr.LinkAddr, bool) {
	a, err := addr.ParseLinkAddr(chi.URLParam(r, "addr"))
	if err != nil {
		ErrorResponse(w, Problem{
			Detail: StringRef(err.Error()),
			Status: http.StatusBadRequest,
			Title:  "malformed node address",
			Type:   StringRef(BadRequest),
		})
		return addr.Null, false
	}
	return a, true
}

func describe(n *sim.Node) Node {
	d := Node{
		Addr:  n.Addr,
		Links: len(n.Links()),
	}
	if rank, ok := n.DAG.Rank(); ok {
		d.Rank = &rank
		if p := n.Parent(); !p.IsNull() {
			d.Parent = &p
		}
	}
	return d
}

// errorResponse maps errors of the network to problem responses.
func errorResponse(w http.ResponseWriter, title string, err error) {
	p := Problem{
		Detail: StringRef(err.Error()),
		Status: http.StatusBadRequest,
		Title:  title,
		Type:   StringRef(BadRequest),
	}
	switch {
	case errors.Is(err, sim.ErrUnknownNode):
		p.Status, p.Type = http.StatusNotFound, StringRef(NotFound)
	case errors.Is(err, sim.ErrNodeExists), errors.Is(err, sim.ErrCycle):
		p.Status, p.Type = http.StatusConflict, StringRef(Conflict)
	}
	ErrorResponse(w, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	// The header is already written, nothing can be done about an error here.
	_ = enc.Encode(v)
}

// ErrorResponse creates a detailed error response.
func ErrorResponse(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	// no point in catching error here, there is nothing we can do about it anymore.
	_ = enc.Encode(p)
}
