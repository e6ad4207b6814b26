// wallet.go - The transaction builder: orchestrates key derivation, the
// spendable note set, coin selection, and assembly of unproven transactions.
//
// All collaborator calls are synchronous and may block; the builder performs
// no retries and returns either a fully proven transaction or an error.

package wallet

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Wallet builds transactions against a seed store, a chain-state client and
// a prover.
type Wallet struct {
	store  Store
	state  StateClient
	prover ProverClient
}

// New creates a wallet from its three collaborators.
func New(store Store, state StateClient, prover ProverClient) *Wallet {
	return &Wallet{store: store, state: state, prover: prover}
}

// PublicKey returns the receiving address for the given key index.
func (w *Wallet) PublicKey(index uint64) (PublicKey, error) {
	sk, err := w.secretKey(index)
	if err != nil {
		return PublicKey{}, err
	}
	return sk.PublicKey(), nil
}

// ViewKey returns the detection/decryption key for the given key index.
func (w *Wallet) ViewKey(index uint64) (ViewKey, error) {
	sk, err := w.secretKey(index)
	if err != nil {
		return ViewKey{}, err
	}
	return sk.ViewKey(), nil
}

// Balance returns the total spendable value for the given key index.
func (w *Wallet) Balance(index uint64) (uint64, error) {
	sk, err := w.secretKey(index)
	if err != nil {
		return 0, err
	}
	owned, err := w.ownedNotes(sk)
	if err != nil {
		return 0, err
	}
	spendable, err := w.filterSpent(sk, owned)
	if err != nil {
		return 0, err
	}
	var total uint64
	for i := range spendable {
		total += spendable[i].value
	}
	return total, nil
}

// Transfer builds, proves and returns a transaction sending value to the
// receiver, paying the fee from the same key index.
func (w *Wallet) Transfer(senderIndex uint64, receiver PublicKey, value uint64, fee Fee) (*Transaction, error) {
	sk, err := w.secretKey(senderIndex)
	if err != nil {
		return nil, err
	}
	utx, err := w.buildUnproven(sk, []outputSpec{{receiver: receiver, value: value}}, fee, 0)
	if err != nil {
		return nil, err
	}
	return w.finalize(utx)
}

// GetStake returns the stake account state for the given key index.
func (w *Wallet) GetStake(index uint64) (StakeInfo, error) {
	sk, err := w.secretKey(index)
	if err != nil {
		return StakeInfo{}, err
	}
	info, err := w.state.FetchStake(sk.PublicKey())
	if err != nil {
		return StakeInfo{}, fmt.Errorf("fetching stake: %w", err)
	}
	return info, nil
}

// outputSpec describes a payment output before its note is created.
type outputSpec struct {
	receiver PublicKey
	value    uint64
}

// secretKey derives the key material for an index from the stored seed.
func (w *Wallet) secretKey(index uint64) (*SecretKey, error) {
	seed, err := w.store.GetSeed()
	if err != nil {
		return nil, fmt.Errorf("retrieving seed: %w", err)
	}
	return DeriveSecretKey(seed, index)
}

// ownedNotes fetches and decrypts the notes the key's view key owns,
// deduplicated by rho. No nullifiers are derived here.
func (w *Wallet) ownedNotes(sk *SecretKey) ([]spendableNote, error) {
	vk := sk.ViewKey()
	enriched, err := w.state.FetchNotes(vk)
	if err != nil {
		return nil, fmt.Errorf("fetching notes: %w", err)
	}
	seen := make(map[fr.Element]struct{}, len(enriched))
	notes := make([]spendableNote, 0, len(enriched))
	for i := range enriched {
		note := enriched[i].Note
		if _, ok := seen[note.Rho]; ok {
			continue
		}
		seen[note.Rho] = struct{}{}
		value, blinder, err := vk.DecryptValue(&note)
		if err != nil {
			return nil, fmt.Errorf("decrypting note: %w", err)
		}
		notes = append(notes, spendableNote{note: note, value: value, blinder: blinder})
	}
	return notes, nil
}

// filterSpent derives the nullifier of every owned note and drops the ones
// already published on chain, producing the spendable set.
func (w *Wallet) filterSpent(sk *SecretKey, owned []spendableNote) ([]spendableNote, error) {
	if len(owned) == 0 {
		return nil, nil
	}
	nullifiers := make([]fr.Element, len(owned))
	for i := range owned {
		owned[i].nullifier = sk.Nullifier(&owned[i].note)
		nullifiers[i] = owned[i].nullifier
	}
	existing, err := w.state.FetchExistingNullifiers(nullifiers)
	if err != nil {
		return nil, fmt.Errorf("fetching existing nullifiers: %w", err)
	}
	spent := make(map[fr.Element]struct{}, len(existing))
	for _, n := range existing {
		spent[n] = struct{}{}
	}
	spendable := owned[:0]
	for i := range owned {
		if _, ok := spent[owned[i].nullifier]; !ok {
			spendable = append(spendable, owned[i])
		}
	}
	return spendable, nil
}

// buildUnproven assembles a transaction from the sender's spendable set: one
// anchor for the whole build, coin selection over the spendable set, change
// back to the sender, per-input openings, nullifiers and signatures, and the
// crossover commitment when a crossover value is requested. The prover is
// never contacted here.
func (w *Wallet) buildUnproven(sk *SecretKey, outputs []outputSpec, fee Fee, crossoverValue uint64) (*UnprovenTransaction, error) {
	sender := sk.PublicKey()
	fee.Refund = sender

	target, ok := mulChecked(fee.GasLimit, fee.GasPrice)
	if ok {
		target, ok = addChecked(target, crossoverValue)
	}
	for _, o := range outputs {
		if !ok {
			break
		}
		target, ok = addChecked(target, o.value)
	}
	if !ok {
		return nil, ErrValueOverflow
	}

	anchor, err := w.state.FetchAnchor()
	if err != nil {
		return nil, fmt.Errorf("fetching anchor: %w", err)
	}

	owned, err := w.ownedNotes(sk)
	if err != nil {
		return nil, err
	}
	// Short-circuit on the raw total before any nullifier is derived.
	var ownedTotal uint64
	for i := range owned {
		ownedTotal = satAdd(ownedTotal, owned[i].value)
	}
	if ownedTotal < target {
		return nil, ErrInsufficientFunds
	}

	spendable, err := w.filterSpent(sk, owned)
	if err != nil {
		return nil, err
	}
	selected, err := pickNotes(spendable, target)
	if err != nil {
		return nil, err
	}

	var selectedValue uint64
	for i := range selected {
		selectedValue, ok = addChecked(selectedValue, selected[i].value)
		if !ok {
			return nil, ErrValueOverflow
		}
	}
	change := selectedValue - target

	logger.Debug().
		Int("selected", len(selected)).
		Uint64("target", target).
		Uint64("change", change).
		Msg("notes selected")

	utx := &UnprovenTransaction{
		Anchor: anchor,
		Fee:    fee,
	}

	var inBlinders fr.Element
	for i := range selected {
		opening, err := w.state.FetchOpening(selected[i].note)
		if err != nil {
			return nil, fmt.Errorf("fetching opening: %w", err)
		}
		inBlinders.Add(&inBlinders, &selected[i].blinder)
		utx.Inputs = append(utx.Inputs, TransactionInput{
			Note:      selected[i].note,
			Value:     selected[i].value,
			Blinder:   selected[i].blinder,
			Opening:   opening,
			Nullifier: selected[i].nullifier,
		})
	}

	var outBlinders fr.Element
	for _, o := range outputs {
		blinder := randomScalar()
		outBlinders.Add(&outBlinders, &blinder)
		utx.Outputs = append(utx.Outputs, TransactionOutput{
			Note:    NewObfuscatedNote(o.receiver, o.value, blinder),
			Value:   o.value,
			Blinder: blinder,
		})
	}
	if change > 0 {
		blinder := randomScalar()
		outBlinders.Add(&outBlinders, &blinder)
		utx.Outputs = append(utx.Outputs, TransactionOutput{
			Note:    NewObfuscatedNote(sender, change, blinder),
			Value:   change,
			Blinder: blinder,
		})
	}

	if crossoverValue > 0 {
		// The balancing blinder closes the blinder-sum equation across
		// inputs, outputs and crossover at proof time.
		var crossBlinder fr.Element
		crossBlinder.Sub(&inBlinders, &outBlinders)
		utx.Crossover = &Crossover{Commitment: ValueCommitment(crossoverValue, crossBlinder)}
		utx.CrossoverValue = crossoverValue
		utx.CrossoverBlinder = crossBlinder
	}

	digest := utx.SigningMessage()
	for i := range utx.Inputs {
		sig, err := sk.sign(digest)
		if err != nil {
			return nil, fmt.Errorf("signing input: %w", err)
		}
		utx.Inputs[i].Signature = sig
	}

	return utx, nil
}

// finalize re-checks the selected nullifiers against the chain and hands the
// assembled transaction to the prover. The re-check narrows, but does not
// eliminate, the window in which a concurrent build may spend the same note.
func (w *Wallet) finalize(utx *UnprovenTransaction) (*Transaction, error) {
	nullifiers := make([]fr.Element, len(utx.Inputs))
	for i := range utx.Inputs {
		nullifiers[i] = utx.Inputs[i].Nullifier
	}
	existing, err := w.state.FetchExistingNullifiers(nullifiers)
	if err != nil {
		return nil, fmt.Errorf("re-checking nullifiers: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrNoteAlreadySpent
	}

	tx, err := w.prover.ComputeProofAndPropagate(utx)
	if err != nil {
		return nil, fmt.Errorf("computing proof: %w", err)
	}

	logger.Debug().
		Int("inputs", len(utx.Inputs)).
		Int("outputs", len(utx.Outputs)).
		Msg("transaction proven")

	return tx, nil
}

func addChecked(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

func mulChecked(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
