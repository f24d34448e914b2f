package dnswire

import (
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/pknames/pknames-go/pkg/records"
	"github.com/pknames/pknames-go/pkg/werrors"
)

var recordTypeToDNS = map[records.Type]uint16{
	records.TypeA:     dns.TypeA,
	records.TypeAAAA:  dns.TypeAAAA,
	records.TypeCNAME: dns.TypeCNAME,
	records.TypeTXT:   dns.TypeTXT,
}

// BuildAnswerMessage converts a peer's published record set into a DNS
// reply message (id 0, to be re-stamped with the query's id by the
// resolver), one RR per record.
func BuildAnswerMessage(recs []records.Record) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.Response = true
	msg.Authoritative = true

	for _, r := range recs {
		rr, err := buildRR(r)
		if err != nil {
			return nil, werrors.New(werrors.Internal, "build resource record", err)
		}
		msg.Answer = append(msg.Answer, rr)
	}
	return msg, nil
}

func buildRR(r records.Record) (dns.RR, error) {
	name := dns.Fqdn(r.Name)
	header := dns.RR_Header{Name: name, Class: dns.ClassINET, Ttl: r.TTL}

	switch r.Type {
	case records.TypeA:
		ip := net.ParseIP(r.Data).To4()
		if ip == nil {
			return nil, fmt.Errorf("invalid A record data %q", r.Data)
		}
		header.Rrtype = dns.TypeA
		return &dns.A{Hdr: header, A: ip}, nil
	case records.TypeAAAA:
		ip := net.ParseIP(r.Data).To16()
		if ip == nil {
			return nil, fmt.Errorf("invalid AAAA record data %q", r.Data)
		}
		header.Rrtype = dns.TypeAAAA
		return &dns.AAAA{Hdr: header, AAAA: ip}, nil
	case records.TypeCNAME:
		header.Rrtype = dns.TypeCNAME
		return &dns.CNAME{Hdr: header, Target: dns.Fqdn(r.Data)}, nil
	case records.TypeTXT:
		header.Rrtype = dns.TypeTXT
		return &dns.TXT{Hdr: header, Txt: []string{r.Data}}, nil
	default:
		return nil, fmt.Errorf("unsupported record type %q", r.Type)
	}
}

// MatchingAnswers filters msg's answers down to those matching qname and
// qtype, so a resolved packet's records can be checked against the
// incoming question before replying.
func MatchingAnswers(msg *dns.Msg, qname string, qtype uint16) []dns.RR {
	fqdn := dns.Fqdn(qname)
	var out []dns.RR
	for _, rr := range msg.Answer {
		hdr := rr.Header()
		if hdr.Rrtype != qtype {
			continue
		}
		if hdr.Name != fqdn {
			continue
		}
		out = append(out, rr)
	}
	return out
}

// MinTTL returns the smallest TTL among rrs, or 0 if rrs is empty.
func MinTTL(rrs []dns.RR) uint32 {
	if len(rrs) == 0 {
		return 0
	}
	min := rrs[0].Header().Ttl
	for _, rr := range rrs[1:] {
		if rr.Header().Ttl < min {
			min = rr.Header().Ttl
		}
	}
	return min
}
