// SPDX-License-Identifier: AGPL-3.0-or-later
// routingcore - SOME/IP routing middleware core
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package protocol_test

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/someip-fabric/routingcore/internal/protocol"
)

func TestServiceRecordRoundTrip(t *testing.T) {
	t.Parallel()
	rec := protocol.ServiceRecord{Service: 0x1234, Instance: 0x0001, Major: 1, Minor: 0}
	buf := rec.Encode(nil)
	got, n, err := protocol.DecodeServiceRecord(buf)
	if err != nil {
		t.Fatalf("DecodeServiceRecord: %v", err)
	}
	if n != protocol.ServiceRecordSize {
		t.Fatalf("consumed %d bytes, want %d", n, protocol.ServiceRecordSize)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceRecordReservedServiceIdRejected(t *testing.T) {
	t.Parallel()
	zero := protocol.ServiceRecord{Service: 0, Instance: 1, Major: 1, Minor: 0}
	if _, _, err := protocol.DecodeServiceRecord(zero.Encode(nil)); err == nil {
		t.Fatal("expected error decoding service id 0")
	}
	any := protocol.ServiceRecord{Service: protocol.AnyService, Instance: 1, Major: 1, Minor: 0}
	if _, _, err := protocol.DecodeServiceRecord(any.Encode(nil)); err == nil {
		t.Fatal("expected error decoding service id 0xFFFF")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()
	h := protocol.Header{ClientID: 0x1001, CommandID: protocol.CommandPing, PayloadSize: 0}
	buf := protocol.EncodeHeader(nil, h)
	got, n, err := protocol.DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if n != protocol.HeaderSize {
		t.Fatalf("consumed %d bytes, want %d", n, protocol.HeaderSize)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderDecodeMismatch(t *testing.T) {
	t.Parallel()
	buf := protocol.EncodeHeader(nil, protocol.Header{})
	buf[0] ^= 0xFF
	if _, _, err := protocol.DecodeHeader(buf); err != protocol.ErrMismatch {
		t.Fatalf("got err %v, want ErrMismatch", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()
	payload := []byte("hello")
	buf, err := protocol.EncodeFrame(nil, 0x1002, protocol.CommandAssignClient, payload, 0)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	frame, n, err := protocol.DecodeFrame(buf, 0)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if string(frame.Payload) != "hello" {
		t.Fatalf("payload = %q, want %q", frame.Payload, "hello")
	}
	reencoded, err := protocol.EncodeFrame(nil, frame.Header.ClientID, frame.Header.CommandID, frame.Payload, 0)
	if err != nil {
		t.Fatalf("re-EncodeFrame: %v", err)
	}
	if diff := cmp.Diff(buf, reencoded); diff != "" {
		t.Fatalf("frame is not byte-identical after round-trip (-want +got):\n%s", diff)
	}
}

func TestFrameMaxSizeExceeded(t *testing.T) {
	t.Parallel()
	_, err := protocol.EncodeFrame(nil, 1, protocol.CommandPing, make([]byte, 16), 8)
	if err != protocol.ErrMaxCommandSizeExceeded {
		t.Fatalf("got err %v, want ErrMaxCommandSizeExceeded", err)
	}
}

func TestFrameNotEnoughBytes(t *testing.T) {
	t.Parallel()
	buf, err := protocol.EncodeFrame(nil, 1, protocol.CommandPing, nil, 0)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if _, _, err := protocol.DecodeFrame(buf[:len(buf)-2], 0); err != protocol.ErrNotEnoughBytes {
		t.Fatalf("got err %v, want ErrNotEnoughBytes", err)
	}
}

func TestRoutingInfoEntryRoundTripAddClient(t *testing.T) {
	t.Parallel()
	entry := protocol.RoutingInfoEntry{
		Type:    protocol.RoutingEntryAddClient,
		Client:  0x1001,
		Address: net.IPv4(127, 0, 0, 1),
		Port:    30509,
	}
	buf := entry.Encode(nil)
	got, n, err := protocol.DecodeRoutingInfoEntry(buf)
	if err != nil {
		t.Fatalf("DecodeRoutingInfoEntry: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if got.Client != entry.Client || got.Port != entry.Port || !got.Address.Equal(entry.Address) {
		t.Fatalf("got %+v, want %+v", got, entry)
	}
}

func TestRoutingInfoEntryRoundTripAddServiceInstance(t *testing.T) {
	t.Parallel()
	entry := protocol.RoutingInfoEntry{
		Type:   protocol.RoutingEntryAddServiceInstance,
		Client: 0x1001,
		Services: []protocol.ServiceRecord{
			{Service: 0x1234, Instance: 0x0001, Major: 1, Minor: 0},
		},
	}
	buf := entry.Encode(nil)
	got, n, err := protocol.DecodeRoutingInfoEntry(buf)
	if err != nil {
		t.Fatalf("DecodeRoutingInfoEntry: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if diff := cmp.Diff(entry.Services, got.Services); diff != "" {
		t.Fatalf("services mismatch (-want +got):\n%s", diff)
	}
}

func TestPolicyRoundTrip(t *testing.T) {
	t.Parallel()
	p := protocol.Policy{
		Uid: 1000,
		Gid: 1000,
		Requests: []protocol.RequestEntry{
			{
				Service:   0x1234,
				Instances: protocol.IntervalSet{{Low: 1, High: 1}},
				Methods:   protocol.IntervalSet{{Low: 1, High: 0xFFFE}},
			},
		},
		Offers: []protocol.OfferEntry{
			{Service: 0x1234, Instances: protocol.IntervalSet{{Low: 1, High: 1}}},
		},
	}
	buf := protocol.EncodePolicy(nil, p)
	got, n, err := protocol.DecodePolicy(buf)
	if err != nil {
		t.Fatalf("DecodePolicy: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPolicyIntervalAnyMethodRewrite(t *testing.T) {
	t.Parallel()
	p := protocol.Policy{
		Requests: []protocol.RequestEntry{
			{
				Service:   1,
				Instances: protocol.IntervalSet{{Low: 1, High: 1}},
				Methods:   protocol.IntervalSet{{Low: uint16(protocol.AnyMethod), High: uint16(protocol.AnyMethod)}},
			},
		},
	}
	buf := protocol.EncodePolicy(nil, p)
	got, _, err := protocol.DecodePolicy(buf)
	if err != nil {
		t.Fatalf("DecodePolicy: %v", err)
	}
	want := protocol.IntervalSet{{Low: 1, High: uint16(protocol.AnyMethod)}}
	if diff := cmp.Diff(want, got.Requests[0].Methods); diff != "" {
		t.Fatalf("rewrite mismatch (-want +got):\n%s", diff)
	}
}

func TestPolicySingleZeroRejected(t *testing.T) {
	t.Parallel()
	p := protocol.Policy{
		Requests: []protocol.RequestEntry{
			{
				Service:   1,
				Instances: protocol.IntervalSet{{Low: 0, High: 0}},
			},
		},
	}
	buf := protocol.EncodePolicy(nil, p)
	if _, _, err := protocol.DecodePolicy(buf); err != protocol.ErrUnknown {
		t.Fatalf("got err %v, want ErrUnknown", err)
	}
}

func TestSubscribeRoundTripWithFilter(t *testing.T) {
	t.Parallel()
	s := protocol.Subscribe{
		Service:    0x1234,
		Instance:   1,
		Eventgroup: 1,
		Major:      1,
		Event:      0x8001,
		PendingID:  42,
		Filter:     []byte{0xDE, 0xAD},
	}
	buf := s.Encode(nil)
	got, err := protocol.DecodeSubscribe(buf)
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDistributeSecurityPoliciesCanonicalizesCount(t *testing.T) {
	t.Parallel()
	d := protocol.DistributeSecurityPolicies{
		Policies: []protocol.Policy{{Uid: 1, Gid: 1}, {Uid: 2, Gid: 2}},
	}
	buf := d.Encode(nil)
	// Corrupt the declared count; the decoder must not trust it.
	buf[3] = 99
	got, err := protocol.DecodeDistributeSecurityPolicies(buf)
	if err != nil {
		t.Fatalf("DecodeDistributeSecurityPolicies: %v", err)
	}
	if len(got.Policies) != 2 {
		t.Fatalf("got %d policies, want 2", len(got.Policies))
	}
}


