// Package akahash derives 5G-AKA-shaped authentication vectors by hashing,
// modeling the subscriber-store's crypto without implementing Milenage/TUAK
// (explicitly out of scope — the original UDM's real Milenage package is not
// carried forward; see DESIGN.md).
package akahash

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Vector is the {rand, xres, autn, kausf} tuple the subscriber store derives
// for one authentication attempt.
type Vector struct {
	RAND  string
	XRES  string
	AUTN  string
	KAUSF string
}

func hashTag(k []byte, rand string, tag string) string {
	h := sha256.New()
	h.Write(k)
	h.Write([]byte(rand))
	h.Write([]byte(tag))
	return hex.EncodeToString(h.Sum(nil))
}

// Derive builds a vector from a permanent key K and serving network name,
// following "derives a vector {rand,xres,autn,kausf} by hashing (K‖rand‖tag)"
// with tags "XRES", "AUTN", and the serving network name for KAUSF.
func Derive(k []byte, servingNetworkName string) (Vector, error) {
	randBytes := make([]byte, 16)
	if _, err := rand.Read(randBytes); err != nil {
		return Vector{}, err
	}
	randHex := hex.EncodeToString(randBytes)

	xres := hashTag(k, randHex, "XRES")
	autn := hashTag(k, randHex, "AUTN")
	kausf := hashTag(k, randHex, servingNetworkName)

	return Vector{
		RAND:  randHex,
		XRES:  xres,
		AUTN:  autn,
		KAUSF: kausf,
	}, nil
}

// DeriveKSEAF computes kseaf = H(kausf ‖ servingNetworkName ‖ "KSEAF").
func DeriveKSEAF(kausfHex, servingNetworkName string) string {
	h := sha256.New()
	h.Write([]byte(kausfHex))
	h.Write([]byte(servingNetworkName))
	h.Write([]byte("KSEAF"))
	return hex.EncodeToString(h.Sum(nil))
}

// DeriveHXRES computes the hashed expected response HXRES* stored by AUSF and
// compared against the UE-supplied RES* on confirmation.
func DeriveHXRES(xres string) string {
	h := sha256.New()
	h.Write([]byte(xres))
	h.Write([]byte("HXRES"))
	return hex.EncodeToString(h.Sum(nil))
}

// DeconcealSUCI applies the emulator's ad hoc SUCI->SUPI mapping (design notes
// §9: "take the trailing digits"; real systems use ECIES, intentionally not
// modeled here). A SUCI of the form "suci-<mcc>-<mnc>-<routing>-<msin>" maps to
// "imsi-<mcc><mnc><msin>"; any other shape is returned unchanged (it is
// already a SUPI, or malformed and will fail lookup downstream).
func DeconcealSUCI(suciOrSupi string) string {
	if len(suciOrSupi) < 5 || suciOrSupi[:5] != "suci-" {
		return suciOrSupi
	}
	var mcc, mnc, routing, msin string
	n, err := fmt.Sscanf(suciOrSupi, "suci-%3s-%2s-%4s-%s", &mcc, &mnc, &routing, &msin)
	if err != nil || n != 4 {
		return suciOrSupi
	}
	// Zero-pad the trailing MSIN digits to a fixed width: ad hoc by design
	// (design notes §9), not a real ECIES de-concealment.
	for len(msin) < 10 {
		msin = "0" + msin
	}
	return fmt.Sprintf("imsi-%s%s%s", mcc, mnc, msin)
}
