// Command scripts splits an existing RSA private key into a client key share and a server key share, for a
// provisioned client and the server that co-signs with it.
//
// The key is read as a PKCS #1 or PKCS #8 PEM block from the file named by -key, or generated when -key is empty.
// Each share is written as a PEM block to the files named by -client and -server, or printed when they are empty
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign"
)

func main() {
	keyPath := flag.String("key", "", "PEM file holding the RSA private key to split")
	clientPath := flag.String("client", "", "where to write the client key share")
	serverPath := flag.String("server", "", "where to write the server key share")
	flag.Parse()

	if err := run(*keyPath, *clientPath, *serverPath); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(keyPath, clientPath, serverPath string) error {
	key, err := loadKey(keyPath)
	if err != nil {
		return err
	}

	client, server, err := splitsign.SplitKey(rand.Reader, key)
	if err != nil {
		return err
	}
	defer client.Wipe()
	defer server.Wipe()

	fmt.Fprintf(os.Stderr, "split key %s\n", splitsign.Fingerprint(client.Modulus))
	if err := writeShare(client, clientPath); err != nil {
		return err
	}
	return writeShare(server, serverPath)
}

func loadKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return rsa.GenerateKey(rand.Reader, splitsign.ModulusBits)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read key")
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.Errorf("no PEM block in %s", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Errorf("%s does not hold an RSA key", path)
	}
	return key, nil
}

func writeShare(share *splitsign.KeyShare, path string) error {
	encoded, err := share.EncodePEM()
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Print(encoded)
		return nil
	}
	return errors.Wrapf(os.WriteFile(path, []byte(encoded), 0o600), "failed to write %s share", share.Role)
}
