// Package phoenix implements a confidential-transaction engine: a
// UTXO-style note ledger in which values and recipients are hidden behind
// cryptographic commitments and a Groth16 zero-knowledge proof, rather than
// carried in the clear.
package phoenix
