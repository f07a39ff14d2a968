// Package bugstr provides a Go client SDK for bugstr, zero-infrastructure
// crash reporting over public relays with end-to-end encryption.
//
// Crash reports are delivered as gift-wrapped encrypted events: an
// unsigned rumor carrying the report, sealed to the recipient by the
// sender, wrapped again under a single-use identity so relays learn
// nothing about the sender. Reports over 50KB are split into
// content-addressed, convergently encrypted chunks published as public
// events, with a gift-wrapped manifest holding the root hash needed to
// locate and decrypt them.
//
// Basic usage:
//
//	client, err := bugstr.New("developer-pubkey-hex",
//	    bugstr.WithRelays("wss://relay.example.com", "wss://relay.other.net"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Recover()
//
//	// Or send explicitly:
//	outcome, err := client.Send(ctx, reportJSON)
package bugstr
