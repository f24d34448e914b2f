// Package resolver is the DNS front-end to the core: it accepts a raw DNS
// query byte buffer and returns a raw DNS reply byte buffer, chaining WoT
// name prediction with a TTL-cached signed-packet DHT fetch.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/pknames/pknames-go/pkg/cache"
	"github.com/pknames/pknames-go/pkg/config"
	"github.com/pknames/pknames-go/pkg/dht"
	"github.com/pknames/pknames-go/pkg/dnswire"
	"github.com/pknames/pknames-go/pkg/identity"
	"github.com/pknames/pknames-go/pkg/predict"
	"github.com/pknames/pknames-go/pkg/prune"
	"github.com/pknames/pknames-go/pkg/transform"
	"github.com/pknames/pknames-go/pkg/werrors"
)

// Resolver answers DNS queries by predicting a public key for a
// human-readable name through the web of trust, then fetching that key's
// signed record packet from the DHT.
type Resolver struct {
	self    identity.PublicKey
	dir     config.Directory
	dht     dht.Client
	cache   *cache.RecordCache
	noCache bool
	maxTTL  time.Duration
	logger  *slog.Logger

	forwardAddr string
	dnsClient   *dns.Client
}

// New builds a Resolver. recordCache may be nil, in which case caching is
// disabled regardless of noCache.
func New(self identity.PublicKey, dir config.Directory, dhtClient dht.Client, recordCache *cache.RecordCache, noCache bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		self:      self,
		dir:       dir,
		dht:       dhtClient,
		cache:     recordCache,
		noCache:   noCache || recordCache == nil,
		maxTTL:    cache.DefaultMaxTTL,
		logger:    logger.With("component", "resolver"),
		dnsClient: &dns.Client{Net: "udp"},
	}
}

// SetMaxTTL overrides the configured maximum cache TTL.
func (r *Resolver) SetMaxTTL(d time.Duration) { r.maxTTL = d }

// SetForward configures the upstream resolver address. An empty addr disables
// forwarding: a domain the web of trust has no opinion on then answers
// NXDOMAIN instead.
func (r *Resolver) SetForward(addr string) { r.forwardAddr = addr }

// Resolve parses a raw DNS query, answers it, and returns the raw reply.
// A failure surfaces as a DNS error reply whose rcode rcodeFor picks
// (NXDOMAIN or SERVFAIL) rather than an error return; a query that cannot
// be unpacked gets no reply (nil). The resolver never panics on a
// per-query path.
func (r *Resolver) Resolve(ctx context.Context, query []byte) []byte {
	req := new(dns.Msg)
	if err := req.Unpack(query); err != nil {
		r.logger.Warn("malformed dns query", "error", err)
		return nil
	}

	reply := new(dns.Msg)
	reply.SetReply(req)

	if len(req.Question) == 0 {
		reply.Rcode = dns.RcodeServerFailure
		return r.packOrNil(reply)
	}

	q := req.Question[0]
	name := strings.TrimSuffix(q.Name, ".")

	key, ok := pkarrLabel(name)
	if ok {
		r.answerFromKey(ctx, reply, q, name, key)
		return r.packOrNil(reply)
	}

	predicted, err := r.predictKey(name)
	if err != nil {
		if isDomainMiss(err) && r.forwardAddr != "" {
			if fwd, ferr := r.forward(ctx, req); ferr == nil {
				return r.packOrNil(fwd)
			}
		}
		r.logger.Info("wot prediction failed", "name", name, "error", err)
		reply.Rcode = rcodeFor(err)
		return r.packOrNil(reply)
	}

	r.answerFromKeyWithRewrite(ctx, reply, q, name, predicted)
	return r.packOrNil(reply)
}

// isDomainMiss reports whether err means "this name isn't part of the web
// of trust at all", as opposed to an internal or upstream failure - only
// this kind of miss is worth falling back to the upstream resolver for.
func isDomainMiss(err error) bool {
	return errors.Is(err, predict.ErrNoLists) || errors.Is(err, predict.ErrDomainNotInWebOfTrust)
}

// forward relays req to the configured upstream resolver, the fallback
// path for ordinary internet names this system has no WoT opinion on.
func (r *Resolver) forward(ctx context.Context, req *dns.Msg) (*dns.Msg, error) {
	resp, _, err := r.dnsClient.ExchangeContext(ctx, req, r.forwardAddr)
	if err != nil {
		return nil, werrors.New(werrors.Upstream, "forward to "+r.forwardAddr, err)
	}
	return resp, nil
}

// pkarrLabel reports whether name's rightmost label is itself a valid
// public key in text form, the direct "pkarr" query shortcut that skips
// the WoT pipeline entirely.
func pkarrLabel(name string) (identity.PublicKey, bool) {
	labels := dns.SplitDomainName(name)
	if len(labels) == 0 {
		return identity.PublicKey{}, false
	}
	key, err := identity.ParsePublicKey(labels[len(labels)-1])
	if err != nil {
		return identity.PublicKey{}, false
	}
	return key, true
}

// predictKey runs the WoT pipeline (transform -> prune -> predict) on
// name and returns the argmax class key.
func (r *Resolver) predictKey(name string) (identity.PublicKey, error) {
	lists, err := r.dir.ReadValidLists(r.logger)
	if err != nil {
		return identity.PublicKey{}, werrors.New(werrors.Configuration, "read lists", err)
	}

	g := transform.ListsToGraph(lists)
	g = prune.Prune(g, r.self, name)

	pred, err := predict.Predict(g)
	if err != nil {
		return identity.PublicKey{}, err
	}
	best, ok := pred.Best()
	if !ok {
		return identity.PublicKey{}, predict.ErrDomainNotInWebOfTrust
	}
	return best.PubKey, nil
}

// answerFromKey handles a direct pkarr query: the queried name and the
// synthetic lookup name are the same, so no answer rewriting is needed.
func (r *Resolver) answerFromKey(ctx context.Context, reply *dns.Msg, q dns.Question, name string, key identity.PublicKey) {
	msg, err := r.fetchPacket(ctx, key)
	if err != nil {
		reply.Rcode = rcodeFor(err)
		return
	}
	matches := dnswire.MatchingAnswers(msg, name, q.Qtype)
	reply.Answer = matches
}

// answerFromKeyWithRewrite handles the WoT path:
// the signed packet is published under a synthetic "name.<key>" label, so
// matches are filtered against that synthetic name and then rewritten
// back to the name the caller actually asked about.
func (r *Resolver) answerFromKeyWithRewrite(ctx context.Context, reply *dns.Msg, q dns.Question, name string, key identity.PublicKey) {
	synthetic := name + "." + key.Z32()

	msg, err := r.fetchPacket(ctx, key)
	if err != nil {
		reply.Rcode = rcodeFor(err)
		return
	}

	matches := dnswire.MatchingAnswers(msg, synthetic, q.Qtype)
	answers := make([]dns.RR, 0, len(matches))
	for _, rr := range matches {
		rewritten := dns.Copy(rr)
		rewritten.Header().Name = q.Name
		answers = append(answers, rewritten)
	}
	reply.Answer = answers
}

// fetchPacket returns key's signed DNS message, consulting the cache
// before falling back to the DHT client and caching a fresh fetch.
func (r *Resolver) fetchPacket(ctx context.Context, key identity.PublicKey) (*dns.Msg, error) {
	if !r.noCache {
		if raw, ok := r.cache.Get(key); ok {
			sp, err := dnswire.Decode(raw)
			if err == nil {
				if msg, err := dnswire.Verify(sp); err == nil {
					return msg, nil
				}
			}
		}
	}

	raw, err := r.dht.Resolve(ctx, key)
	if err != nil {
		return nil, werrors.New(werrors.Upstream, "dht resolve", err)
	}

	sp, err := dnswire.Decode(raw)
	if err != nil {
		return nil, err
	}
	msg, err := dnswire.Verify(sp)
	if err != nil {
		return nil, err
	}

	if !r.noCache {
		ttl := dnswire.MinTTL(msg.Answer)
		r.cache.Put(key, raw, cache.ClampTTL(time.Duration(ttl)*time.Second, r.maxTTL))
	}

	return msg, nil
}

func (r *Resolver) packOrNil(msg *dns.Msg) []byte {
	packed, err := msg.Pack()
	if err != nil {
		r.logger.Error("failed to pack dns reply", "error", err)
		return nil
	}
	return packed
}

// rcodeFor classifies a pipeline error into a DNS response code: NXDOMAIN
// for a name the web of trust has no opinion on, SERVFAIL for everything
// else - an upstream DHT failure, or an internal bug such as
// graph.ErrCyclePresent surviving pruning.
func rcodeFor(err error) int {
	switch {
	case errors.Is(err, predict.ErrNoLists), errors.Is(err, predict.ErrDomainNotInWebOfTrust):
		return dns.RcodeNameError
	case errors.Is(err, werrors.ErrInput):
		return dns.RcodeNameError
	default:
		return dns.RcodeServerFailure
	}
}
