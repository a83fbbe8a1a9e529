// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package holder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/thediveo/spaceport/gobmsg"
	"github.com/thediveo/spaceport/holder/api"
	"golang.org/x/sys/unix"
)

// maxFds is the maximum number of namespace references in a single response.
const maxFds = 16

// pollInterval is how often the service loop checks its context while idling.
var pollInterval = 2 * time.Second

// Service carries out the requests of a holder client.
type Service interface {
	Namespaces(*api.NamespacesRequest) api.Response
	Rooms(*api.RoomsRequest) api.Response
	Slog() *slog.Logger
}

// Serve services requests on the passed connection until either the client
// disconnects or the passed context gets cancelled, using the passed service
// to carry out the requests.
func Serve(ctx context.Context, conn *gobmsg.Conn, svc Service) {
	log := svc.Slog().With(slog.String("holder-id", petname.Generate(2, "-")))
	log.Info("holder serving loop started", slog.Int("pid", os.Getpid()))
	defer log.Info("holder serving loop terminated")

	for {
		select {
		case <-ctx.Done():
			log.Info("context cancelled")
			return
		default:
		}
		// read with a deadline, so we get a chance to check the context from
		// time to time.
		if err := conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			log.Error("cannot set deadline", slog.String("err", err.Error()))
			return
		}
		var req api.Request
		fds, err := conn.Receive(&req, 0)
		closeFds(fds)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Info("client disconnected")
				return
			}
			log.Error("cannot receive request", slog.String("err", err.Error()))
			return
		}

		log.Info("serving request", slog.String("request", fmt.Sprintf("%T", req)))
		var resp api.Response
		switch req := req.(type) {
		case *api.NamespacesRequest:
			resp = svc.Namespaces(req)
		case *api.RoomsRequest:
			resp = svc.Rooms(req)
		default:
			resp = &api.ErrorResponse{Reason: fmt.Sprintf("unhandled request %T", req)}
		}

		var respfds []int
		if enc, ok := resp.(api.FdsEncoder); ok {
			respfds = enc.EncodeFds()
		}
		err = conn.Send(&resp, respfds...)
		// the fds are now in transit with the kernel in charge, or they never
		// made it; in both cases we must close our copies.
		closeFds(respfds)
		if err != nil {
			log.Error("cannot send response", slog.String("err", err.Error()))
			return
		}
	}
}

func closeFds(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}
