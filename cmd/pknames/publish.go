package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pknames/pknames-go/pkg/dht"
	"github.com/pknames/pknames-go/pkg/dnswire"
	"github.com/pknames/pknames-go/pkg/records"
)

// newPublishCmd signs the operator's record set and publishes it to the
// DHT under their own public key.
func newPublishCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Sign and publish your DNS records to the DHT",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}
			pub, priv, err := dir.ReadSecret()
			if err != nil {
				return err
			}

			var recs []records.Record
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				recs, err = records.ParseString(string(data))
				if err != nil {
					return err
				}
			} else {
				byOwner, err := dir.ReadRecordFiles()
				if err != nil {
					return err
				}
				recs = byOwner[pub]
			}
			if len(recs) == 0 {
				return fmt.Errorf("no records to publish (write one to %s/%s.txt or pass --file)", dir.RecordsPath(), pub.Z32())
			}

			msg, err := dnswire.BuildAnswerMessage(recs)
			if err != nil {
				return err
			}
			seq := uint64(time.Now().Unix())
			sp, err := dnswire.Sign(priv, pub, seq, msg)
			if err != nil {
				return err
			}

			store, err := dht.OpenStore(dir.DHTStorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			transport := dht.NewInProcessTransport()
			node := dht.NewNode(pub, "self", transport, store)
			transport.Register("self", node)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := node.Publish(ctx, pub, dnswire.Encode(sp)); err != nil {
				return err
			}

			fmt.Printf("published %d record(s) for %s at sequence %d\n", len(recs), pub, seq)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "record file to publish (default: records/<your-key>.txt)")
	return cmd
}
