/*
Package client provides a Go client library for talking to a vectord
server over its native TCP protocol.

A Client owns one authenticated connection and serializes requests
against it; a Pool fans out concurrent callers across a fixed set of
Clients.

# Usage

	cl, err := client.Dial("127.0.0.1:9191", "shared-secret")
	if err != nil {
		log.Fatal(err)
	}
	defer cl.Close()

	if _, err := cl.CreateIndex("widgets", "l2", 128); err != nil {
		log.Fatal(err)
	}
	if err := cl.InitIndex("widgets", 10000, 200, 16); err != nil {
		log.Fatal(err)
	}
	if err := cl.AddItems("widgets", vectors, ids); err != nil {
		log.Fatal(err)
	}
	labels, dists, err := cl.QueryIndex("widgets", queries, 10)

# Pooling

For concurrent callers, use a Pool instead of sharing one Client: each
Client serializes its own Do calls, so a shared Client turns concurrent
requests into a queue.

	pool, err := client.NewPool(4, func() (*client.Client, error) {
		return client.Dial("127.0.0.1:9191", "shared-secret")
	})
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	err = pool.Use(func(cl *client.Client) error {
		_, err := cl.QueryIndex("widgets", queries, 10)
		return err
	})
*/
package client
