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

// Interval is an inclusive [Low, High] range of instance or method ids. A
// single value is represented with Low == High.
type Interval struct {
	Low  uint16
	High uint16
}

// IntervalSet is an unordered collection of Intervals.
type IntervalSet []Interval

// Contains reports whether id falls within any interval of the set.
func (s IntervalSet) Contains(id uint16) bool {
	for _, iv := range s {
		if id >= iv.Low && id <= iv.High {
			return true
		}
	}
	return false
}

const (
	itemTypeSingle Interval_ItemType = 1
	itemTypeRange  Interval_ItemType = 2
)

// Interval_ItemType is the wire discriminator for one id-item-list entry.
type Interval_ItemType uint32

// RequestEntry is one element of a Policy's requests list: the instances
// and methods of Service that the principal may request.
type RequestEntry struct {
	Service   ServiceId
	Instances IntervalSet
	Methods   IntervalSet
}

// OfferEntry is one element of a Policy's offers list: the instances of
// Service that the principal may offer.
type OfferEntry struct {
	Service   ServiceId
	Instances IntervalSet
}

// Policy is the decoded form of an UPDATE_SECURITY_POLICY payload.
type Policy struct {
	Uid      Uid
	Gid      Gid
	Requests []RequestEntry
	Offers   []OfferEntry
}

// EncodePolicy appends the big-endian wire form of p to buf and returns
// the result. Command frames outside the policy payload use host byte
// order; this function never does.
func EncodePolicy(buf []byte, p Policy) []byte {
	var head [8]byte
	putBE32(head[0:4], uint32(p.Uid))
	putBE32(head[4:8], uint32(p.Gid))
	buf = append(buf, head[:]...)

	reqBuf := make([]byte, 0, 64)
	for _, r := range p.Requests {
		var svc [2]byte
		putBE16(svc[:], uint16(r.Service))
		entry := append([]byte(nil), svc[:]...)
		entry = encodeIntervalSet(entry, r.Instances)
		entry = encodeIntervalSet(entry, r.Methods)

		var idsLen [4]byte
		putBE32(idsLen[:], uint32(len(entry)-2))
		full := append(append([]byte(nil), svc[:]...), idsLen[:]...)
		full = append(full, entry[2:]...)
		reqBuf = append(reqBuf, full...)
	}
	var reqLen [4]byte
	putBE32(reqLen[:], uint32(len(reqBuf)))
	buf = append(buf, reqLen[:]...)
	buf = append(buf, reqBuf...)

	offBuf := make([]byte, 0, 32)
	for _, o := range p.Offers {
		var svc [2]byte
		putBE16(svc[:], uint16(o.Service))
		offBuf = append(offBuf, svc[:]...)
		offBuf = encodeIntervalSet(offBuf, o.Instances)
	}
	var offLen [4]byte
	putBE32(offLen[:], uint32(len(offBuf)))
	buf = append(buf, offLen[:]...)
	buf = append(buf, offBuf...)

	return buf
}

// DecodePolicy parses a Policy from the front of buf.
func DecodePolicy(buf []byte) (Policy, int, error) {
	if err := need(buf, 8); err != nil {
		return Policy{}, 0, err
	}
	p := Policy{
		Uid: Uid(getBE32(buf[0:4])),
		Gid: Gid(getBE32(buf[4:8])),
	}
	off := 8

	if err := need(buf[off:], 4); err != nil {
		return Policy{}, 0, err
	}
	requestsLen := int(getBE32(buf[off : off+4]))
	off += 4
	if err := need(buf[off:], requestsLen); err != nil {
		return Policy{}, 0, err
	}
	reqBuf := buf[off : off+requestsLen]
	off += requestsLen

	for len(reqBuf) > 0 {
		if err := need(reqBuf, 6); err != nil {
			return Policy{}, 0, err
		}
		svc := ServiceId(getBE16(reqBuf[0:2]))
		idsLen := int(getBE32(reqBuf[2:6]))
		if err := need(reqBuf[6:], idsLen); err != nil {
			return Policy{}, 0, err
		}
		idsBuf := reqBuf[6 : 6+idsLen]

		instances, n, err := decodeIntervalSet(idsBuf)
		if err != nil {
			return Policy{}, 0, err
		}
		idsBuf = idsBuf[n:]
		methods, _, err := decodeIntervalSet(idsBuf)
		if err != nil {
			return Policy{}, 0, err
		}

		p.Requests = append(p.Requests, RequestEntry{Service: svc, Instances: instances, Methods: methods})
		reqBuf = reqBuf[6+idsLen:]
	}

	if err := need(buf[off:], 4); err != nil {
		return Policy{}, 0, err
	}
	offersLen := int(getBE32(buf[off : off+4]))
	off += 4
	if err := need(buf[off:], offersLen); err != nil {
		return Policy{}, 0, err
	}
	offBuf := buf[off : off+offersLen]
	off += offersLen

	for len(offBuf) > 0 {
		if err := need(offBuf, 2); err != nil {
			return Policy{}, 0, err
		}
		svc := ServiceId(getBE16(offBuf[0:2]))
		instances, n, err := decodeIntervalSet(offBuf[2:])
		if err != nil {
			return Policy{}, 0, err
		}
		p.Offers = append(p.Offers, OfferEntry{Service: svc, Instances: instances})
		offBuf = offBuf[2+n:]
	}

	return p, off, nil
}

// encodeIntervalSet appends total_len(4,BE) followed by the concatenation
// of item_len(4,BE) · item_type(4,BE) · payload for each interval in set.
func encodeIntervalSet(buf []byte, set IntervalSet) []byte {
	items := make([]byte, 0, 12*len(set))
	for _, iv := range set {
		var item []byte
		if iv.Low == iv.High {
			var payload [4]byte
			putBE32(payload[:], uint32(itemTypeSingle))
			item = append(item, payload[:]...)
			var v [2]byte
			putBE16(v[:], iv.Low)
			item = append(item, v[:]...)
		} else {
			var payload [4]byte
			putBE32(payload[:], uint32(itemTypeRange))
			item = append(item, payload[:]...)
			var lo, hi [2]byte
			putBE16(lo[:], iv.Low)
			putBE16(hi[:], iv.High)
			item = append(item, lo[:]...)
			item = append(item, hi[:]...)
		}
		var itemLen [4]byte
		putBE32(itemLen[:], uint32(len(item)))
		items = append(items, itemLen[:]...)
		items = append(items, item...)
	}
	var totalLen [4]byte
	putBE32(totalLen[:], uint32(len(items)))
	buf = append(buf, totalLen[:]...)
	return append(buf, items...)
}

// decodeIntervalSet parses total_len(4,BE) followed by a concatenation of
// items from the front of buf, applying the item_type 1/2 rules and the
// ANY_METHOD whole-range rewrite. It returns the set and the number of
// bytes consumed, including the leading total_len field.
func decodeIntervalSet(buf []byte) (IntervalSet, int, error) {
	if err := need(buf, 4); err != nil {
		return nil, 0, err
	}
	totalLen := int(getBE32(buf[0:4]))
	if err := need(buf[4:], totalLen); err != nil {
		return nil, 0, err
	}
	items := buf[4 : 4+totalLen]

	var set IntervalSet
	for len(items) > 0 {
		if err := need(items, 8); err != nil {
			return nil, 0, err
		}
		itemLen := int(getBE32(items[0:4]))
		itemType := Interval_ItemType(getBE32(items[4:8]))
		if err := need(items[8:], itemLen-4); err != nil {
			return nil, 0, err
		}
		payload := items[8 : 4+itemLen]

		var iv Interval
		switch itemType {
		case itemTypeSingle:
			if err := need(payload, 2); err != nil {
				return nil, 0, err
			}
			v := getBE16(payload[0:2])
			if v == 0 {
				return nil, 0, ErrUnknown
			}
			iv = Interval{Low: v, High: v}
			if uint32(v) == uint32(AnyMethod) {
				iv.Low = 1
			}
		case itemTypeRange:
			if err := need(payload, 4); err != nil {
				return nil, 0, err
			}
			lo := getBE16(payload[0:2])
			hi := getBE16(payload[2:4])
			if lo > hi {
				return nil, 0, ErrUnknown
			}
			if lo == hi && uint32(lo) == uint32(AnyMethod) {
				lo = 1
			}
			iv = Interval{Low: lo, High: hi}
		default:
			return nil, 0, ErrUnknown
		}
		set = append(set, iv)
		items = items[4+itemLen:]
	}

	return set, 4 + totalLen, nil
}
