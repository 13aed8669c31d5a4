/*
Package splitsign implements two-party RSA co-signing, in which a client and a server jointly produce signatures
that verify under the composite modulus N = n1·n2 while neither party ever holds the whole signing secret.

# Overview

The client generates an ordinary 2048-bit RSA key (n1, d) and splits its private exponent additively, over the
integers, into d = dClient + dServer. The server receives dServer and n1, generates a second key (n2, d2) of its own,
and publishes N. To sign a message m:

  - The client computes its share s1c = m^dClient mod n1
  - The server completes it, s1 = s1c · m^dServer mod n1, and checks that s1^65537 mod n1 == m
  - The server signs m under n2 directly, s2 = m^d2 mod n2
  - The server joins s1 and s2 into the signature under N with Garner's formula

The check in the second step is what keeps a client from tricking the server into signing with d2 alone: a share
that was not produced with dClient is rejected before the server uses its own key.

# The flow, in code

	client, server := splitsign.NewClient(), splitsign.NewServer()
	if err := client.GenerateKeys(); err != nil {
		return err
	}

	// each of these can be read once
	dServer, _ := client.GetKeyShare(splitsign.KeyExponent)
	n1, _ := client.GetKeyShare(splitsign.KeyModulus)

	_ = server.SetClientKeyShare(splitsign.KeyExponent, splitsign.Single, dServer)
	_ = server.SetClientKeyShare(splitsign.KeyModulus, splitsign.Single, n1)
	composite, _ := server.GetPublicModulus(splitsign.Single)

	em, _ := splitsign.EncodePKCS1v15(crypto.SHA256, hashed)
	_ = client.SetMessage(splitsign.Single, em)
	share, _ := client.Sign()

	_ = server.SetClientSignature(splitsign.SignatureMessage, splitsign.Single, em)
	_ = server.SetClientSignature(splitsign.SignatureShare, splitsign.Single, share)
	if err := server.ComputeSignature(); err != nil {
		return err
	}
	sig, _ := server.GetFinalSignature(splitsign.Single)

	err := splitsign.VerifyPKCS1v15(composite, crypto.SHA256, hashed, sig)

A ProvisionedClient stands in for the Client when the key was generated and split elsewhere, see SplitKey.

# Segmented transfer

Every value crosses between the parties as a fixed-width big-endian byte string, either whole (Single) or as two
ordered halves (Half0, Half1) that may arrive in either order. A transport that can only carry half a value at a
time sees the same results as one that carries it whole. Package transport wraps each party in a command
dispatcher for exactly that kind of channel.

# Sources

	[1] https://eprint.iacr.org/2001/060.pdf
*/
package splitsign
