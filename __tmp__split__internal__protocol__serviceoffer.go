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

package protocol

// OfferService and StopOfferService share a payload shape: a single
// ServiceRecord.

// DecodeOfferService parses an OFFER_SERVICE / STOP_OFFER_SERVICE payload.
func DecodeOfferService(payload []byte) (ServiceRecord, error) {
	rec, _, err := DecodeServiceRecord(payload)
	return rec, err
}

// EncodeOfferService appends the wire form of rec to buf.
func EncodeOfferService(buf []byte, rec ServiceRecord) []byte {
	return rec.Encode(buf)
}

// RequestService requests a set of services by ServiceRecord.
type RequestService struct {
	Records []ServiceRecord
}

// Encode appends the wire form of r to buf.
func (r RequestService) Encode(buf []byte) []byte {
	for _, rec := range r.Records {
		buf = rec.Encode(buf)
	}
	return buf
}

// DecodeRequestService parses a REQUEST_SERVICE payload, whose record
// count is implied by len(payload) / ServiceRecordSize.
func DecodeRequestService(payload []byte) (RequestService, error) {
	if len(payload)%ServiceRecordSize != 0 {
		return RequestService{}, ErrNotEnoughBytes
	}
	records, _, err := DecodeServiceRecords(payload, len(payload)/ServiceRecordSize)
	if err != nil {
		return RequestService{}, err
	}
	return RequestService{Records: records}, nil
}

// ReleaseService identifies a (service, instance) to stop requesting.
type ReleaseService struct {
	Service  ServiceId
	Instance InstanceId
}

// Encode appends the wire form of r to buf.
func (r ReleaseService) Encode(buf []byte) []byte {
	var tmp [4]byte
	putLE16(tmp[0:2], uint16(r.Service))
	putLE16(tmp[2:4], uint16(r.Instance))
	return append(buf, tmp[:]...)
}

// DecodeReleaseService parses a RELEASE_SERVICE payload.
func DecodeReleaseService(payload []byte) (ReleaseService, error) {
	if err := need(payload, 4); err != nil {
		return ReleaseService{}, err
	}
	return ReleaseService{
		Service:  ServiceId(getLE16(payload[0:2])),
		Instance: InstanceId(getLE16(payload[2:4])),
	}, nil
}

// OfferedServicesRequestType selects which offer set OFFERED_SERVICES_REQUEST
// asks about.
type OfferedServicesRequestType uint8

const (
	OfferedServicesLocal OfferedServicesRequestType = iota
	OfferedServicesRemote
	OfferedServicesAll
)

// OfferedServicesRequest carries the requested offer_type.
type OfferedServicesRequest struct {
	OfferType OfferedServicesRequestType
}

// Encode appends the wire form of r to buf.
func (r OfferedServicesRequest) Encode(buf []byte) []byte {
	return append(buf, byte(r.OfferType))
}

// DecodeOfferedServicesRequest parses an OFFERED_SERVICES_REQUEST payload.
func DecodeOfferedServicesRequest(payload []byte) (OfferedServicesRequest, error) {
	if err := need(payload, 1); err != nil {
		return OfferedServicesRequest{}, err
	}
	return OfferedServicesRequest{OfferType: OfferedServicesRequestType(payload[0])}, nil
}

// OfferedServicesResponse carries the matching ServiceRecord set.
type OfferedServicesResponse struct {
	Records []ServiceRecord
}

// Encode appends the wire form of r to buf.
func (r OfferedServicesResponse) Encode(buf []byte) []byte {
	for _, rec := range r.Records {
		buf = rec.Encode(buf)
	}
	return buf
}

// DecodeOfferedServicesResponse parses an OFFERED_SERVICES_RESPONSE payload.
func DecodeOfferedServicesResponse(payload []byte) (OfferedServicesResponse, error) {
	if len(payload)%ServiceRecordSize != 0 {
		return OfferedServicesResponse{}, ErrNotEnoughBytes
	}
	records, _, err := DecodeServiceRecords(payload, len(payload)/ServiceRecordSize)
	if err != nil {
		return OfferedServicesResponse{}, err
	}
	return OfferedServicesResponse{Records: records}, nil
}

// ResendProvidedEvents carries the RemoteOfferId whose provided events
// should be replayed.
type ResendProvidedEvents struct {
	OfferID RemoteOfferId
}

// Encode appends the wire form of r to buf.
func (r ResendProvidedEvents) Encode(buf []byte) []byte {
	var tmp [4]byte
	putLE32(tmp[:], uint32(r.OfferID))
	return append(buf, tmp[:]...)
}

// DecodeResendProvidedEvents parses a RESEND_PROVIDED_EVENTS payload.
func DecodeResendProvidedEvents(payload []byte) (ResendProvidedEvents, error) {
	if err := need(payload, 4); err != nil {
		return ResendProvidedEvents{}, err
	}
	return ResendProvidedEvents{OfferID: RemoteOfferId(getLE32(payload[0:4]))}, nil
}


