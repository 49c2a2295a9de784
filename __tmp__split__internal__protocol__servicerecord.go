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

// Encode appends the wire form of r to buf and returns the result.
func (r ServiceRecord) Encode(buf []byte) []byte {
	var tmp [ServiceRecordSize]byte
	putLE16(tmp[0:2], uint16(r.Service))
	putLE16(tmp[2:4], uint16(r.Instance))
	tmp[4] = byte(r.Major)
	putLE32(tmp[5:9], uint32(r.Minor))
	return append(buf, tmp[:]...)
}

// DecodeServiceRecord parses a ServiceRecord from the front of buf and
// returns it along with the number of bytes consumed.
func DecodeServiceRecord(buf []byte) (ServiceRecord, int, error) {
	if err := need(buf, ServiceRecordSize); err != nil {
		return ServiceRecord{}, 0, err
	}
	svc := ServiceId(getLE16(buf[0:2]))
	if svc == 0 || svc == AnyService {
		return ServiceRecord{}, 0, ErrUnknown
	}
	r := ServiceRecord{
		Service:  svc,
		Instance: InstanceId(getLE16(buf[2:4])),
		Major:    MajorVersion(buf[4]),
		Minor:    MinorVersion(getLE32(buf[5:9])),
	}
	return r, ServiceRecordSize, nil
}

// DecodeServiceRecords parses count consecutive ServiceRecords from buf.
func DecodeServiceRecords(buf []byte, count int) ([]ServiceRecord, int, error) {
	if err := need(buf, ServiceRecordSize*count); err != nil {
		return nil, 0, err
	}
	records := make([]ServiceRecord, count)
	consumed := 0
	for i := range records {
		rec, n, err := DecodeServiceRecord(buf[consumed:])
		if err != nil {
			return nil, 0, err
		}
		records[i] = rec
		consumed += n
	}
	return records, consumed, nil
}


