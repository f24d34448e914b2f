package resolver

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pknames/pknames-go/pkg/cache"
	"github.com/pknames/pknames-go/pkg/config"
	"github.com/pknames/pknames-go/pkg/dht"
	"github.com/pknames/pknames-go/pkg/dnswire"
	"github.com/pknames/pknames-go/pkg/identity"
	"github.com/pknames/pknames-go/pkg/records"
)

func newKeypair(t *testing.T) (identity.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := identity.NewPublicKey(pub)
	require.NoError(t, err)
	return pk, priv
}

func newTestDirectory(t *testing.T) config.Directory {
	t.Helper()
	dir, err := config.New(t.TempDir())
	require.NoError(t, err)
	_, err = dir.CreateIfNotExist()
	require.NoError(t, err)
	return dir
}

// TestResolver_WotQueryRewritesAnswerName: a WoT query predicts key K as
// the argmax, the DHT cache is cold, and the
// DHT returns a signed packet for "foo.example.<K>" - the reply must carry
// the answer under the originally-queried name "foo.example", not the
// key-suffixed synthetic form.
func TestResolver_WotQueryRewritesAnswerName(t *testing.T) {
	me, _ := newKeypair(t)
	target, targetPriv := newKeypair(t)

	dir := newTestDirectory(t)
	meList := identity.NewFollowList(me, "me", []identity.Follow{
		identity.NewClassFollow(target, 1.0, "foo.example"),
	})
	require.NoError(t, dir.WriteList(meList))

	transport := dht.NewInProcessTransport()
	store, err := dht.OpenInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	node := dht.NewNode(me, "me", transport, store)
	transport.Register("me", node)

	recs := []records.Record{{Type: records.TypeA, Name: "foo.example." + target.Z32(), Data: "203.0.113.9", TTL: 300}}
	msg, err := dnswire.BuildAnswerMessage(recs)
	require.NoError(t, err)
	sp, err := dnswire.Sign(targetPriv, target, 1, msg)
	require.NoError(t, err)
	require.NoError(t, node.Publish(context.Background(), target, dnswire.Encode(sp)))

	r := New(me, dir, node, cache.NewRecordCache(0), false, nil)

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn("foo.example"), dns.TypeA)
	queryBytes, err := query.Pack()
	require.NoError(t, err)

	replyBytes := r.Resolve(context.Background(), queryBytes)
	require.NotNil(t, replyBytes)

	reply := new(dns.Msg)
	require.NoError(t, reply.Unpack(replyBytes))
	require.Len(t, reply.Answer, 1)

	a, ok := reply.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, dns.Fqdn("foo.example"), a.Hdr.Name)
	assert.Equal(t, "203.0.113.9", a.A.String())
}

// TestResolver_PkarrDirectQuerySkipsWot: a query whose rightmost label
// is itself a valid public key bypasses the WoT pipeline entirely.
func TestResolver_PkarrDirectQuerySkipsWot(t *testing.T) {
	me, _ := newKeypair(t)
	target, targetPriv := newKeypair(t)

	// An empty directory: if the WoT pipeline ran, it would fail outright.
	dir := newTestDirectory(t)

	transport := dht.NewInProcessTransport()
	store, err := dht.OpenInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	node := dht.NewNode(me, "me", transport, store)
	transport.Register("me", node)

	name := target.Z32()
	recs := []records.Record{{Type: records.TypeTXT, Name: name, Data: "hello", TTL: 300}}
	msg, err := dnswire.BuildAnswerMessage(recs)
	require.NoError(t, err)
	sp, err := dnswire.Sign(targetPriv, target, 1, msg)
	require.NoError(t, err)
	require.NoError(t, node.Publish(context.Background(), target, dnswire.Encode(sp)))

	r := New(me, dir, node, cache.NewRecordCache(0), false, nil)

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	queryBytes, err := query.Pack()
	require.NoError(t, err)

	replyBytes := r.Resolve(context.Background(), queryBytes)
	require.NotNil(t, replyBytes)

	reply := new(dns.Msg)
	require.NoError(t, reply.Unpack(replyBytes))
	require.Len(t, reply.Answer, 1)
	txt, ok := reply.Answer[0].(*dns.TXT)
	require.True(t, ok)
	assert.Equal(t, []string{"hello"}, txt.Txt)
}

// TestResolver_DomainNotInWebOfTrustReturnsNxDomain exercises the
// domain-not-in-the-web-of-trust failure mode surfacing as NXDOMAIN.
func TestResolver_DomainNotInWebOfTrustReturnsNxDomain(t *testing.T) {
	me, _ := newKeypair(t)
	dir := newTestDirectory(t)

	transport := dht.NewInProcessTransport()
	store, err := dht.OpenInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	node := dht.NewNode(me, "me", transport, store)
	transport.Register("me", node)

	r := New(me, dir, node, cache.NewRecordCache(0), false, nil)

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn("nowhere.example"), dns.TypeA)
	queryBytes, err := query.Pack()
	require.NoError(t, err)

	replyBytes := r.Resolve(context.Background(), queryBytes)
	require.NotNil(t, replyBytes)

	reply := new(dns.Msg)
	require.NoError(t, reply.Unpack(replyBytes))
	assert.Equal(t, dns.RcodeNameError, reply.Rcode)
}

// TestResolver_ForwardsUnknownDomainUpstream exercises "Queries
// not handled by WoT/DHT are forwarded to a configured upstream
// resolver": a name absent from the web of trust is relayed to --forward
// instead of answering NXDOMAIN outright.
func TestResolver_ForwardsUnknownDomainUpstream(t *testing.T) {
	me, _ := newKeypair(t)
	dir := newTestDirectory(t)
	transport := dht.NewInProcessTransport()
	store, err := dht.OpenInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	node := dht.NewNode(me, "me", transport, store)
	transport.Register("me", node)

	upstreamConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer upstreamConn.Close()

	go func() {
		buf := make([]byte, 4096)
		n, addr, err := upstreamConn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		req := new(dns.Msg)
		if err := req.Unpack(buf[:n]); err != nil {
			return
		}
		resp := new(dns.Msg)
		resp.SetReply(req)
		rr, _ := dns.NewRR(req.Question[0].Name + " 300 IN A 198.51.100.7")
		resp.Answer = append(resp.Answer, rr)
		out, err := resp.Pack()
		if err != nil {
			return
		}
		_, _ = upstreamConn.WriteToUDP(out, addr)
	}()

	r := New(me, dir, node, cache.NewRecordCache(0), false, nil)
	r.SetForward(upstreamConn.LocalAddr().String())

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn("internet.example"), dns.TypeA)
	queryBytes, err := query.Pack()
	require.NoError(t, err)

	replyBytes := r.Resolve(context.Background(), queryBytes)
	require.NotNil(t, replyBytes)

	reply := new(dns.Msg)
	require.NoError(t, reply.Unpack(replyBytes))
	require.Len(t, reply.Answer, 1)
	a, ok := reply.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, "198.51.100.7", a.A.String())
}

func TestServer_StartStop(t *testing.T) {
	me, _ := newKeypair(t)
	dir := newTestDirectory(t)
	transport := dht.NewInProcessTransport()
	store, err := dht.OpenInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	node := dht.NewNode(me, "me", transport, store)
	transport.Register("me", node)

	r := New(me, dir, node, cache.NewRecordCache(0), false, nil)
	s := NewServer(r, "127.0.0.1:0", 2, nil)
	require.NoError(t, s.Start())
	assert.NotEmpty(t, s.Addr())
	require.NoError(t, s.Stop(context.Background()))
}
