// serialization.go - Transaction encodings.
//
// Two round-trip-safe forms are supported: a fast fixed-layout binary
// encoding (little-endian widths, u32 counts, length-prefixed variable
// parts) and a canonical variable-length CBOR encoding. Decoding either form
// reproduces a value byte-for-byte equal to the original across every field.

package wallet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/fxamacker/cbor/v2"
)

const (
	elementSize = fr.Bytes
	pointSize   = 32
	pubKeySize  = pointSize + 32
	noteSize    = 1 + pointSize + 3*elementSize + 8 + 8 + 2*elementSize
	openingSize = 8 + TreeDepth*elementSize
	feeSize     = 8 + 8 + pubKeySize
)

var canonicalMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// encodeCanonical marshals v in canonical CBOR.
func encodeCanonical(v interface{}) ([]byte, error) {
	return canonicalMode.Marshal(v)
}

// ---- fixed-layout primitives ----

func putElement(buf *bytes.Buffer, e fr.Element) {
	b := e.Bytes()
	buf.Write(b[:])
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putVarBytes(buf *bytes.Buffer, data []byte) {
	putUint32(buf, uint32(len(data)))
	buf.Write(data)
}

// reader consumes a fixed-layout encoding, failing on truncation.
type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, fmt.Errorf("wallet: truncated encoding at offset %d", r.off)
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) element() (fr.Element, error) {
	b, err := r.take(elementSize)
	if err != nil {
		return fr.Element{}, err
	}
	var e fr.Element
	e.SetBytes(b)
	return e, nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) varBytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *reader) done() error {
	if r.off != len(r.buf) {
		return fmt.Errorf("wallet: %d trailing bytes after encoding", len(r.buf)-r.off)
	}
	return nil
}

// ---- Note ----

// MarshalBinary encodes the note in its fixed layout.
func (n *Note) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, noteSize))
	buf.WriteByte(byte(n.Type))
	buf.Write(n.R.Marshal())
	putElement(buf, n.Owner)
	putElement(buf, n.Rho)
	putElement(buf, n.Commitment)
	putUint64(buf, n.Pos)
	putUint64(buf, n.Value)
	putElement(buf, n.EncValue)
	putElement(buf, n.EncBlinder)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a note from its fixed layout.
func (n *Note) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	if err := n.decodeFrom(r); err != nil {
		return err
	}
	return r.done()
}

func (n *Note) decodeFrom(r *reader) error {
	t, err := r.byte()
	if err != nil {
		return err
	}
	n.Type = NoteType(t)
	pt, err := r.take(pointSize)
	if err != nil {
		return err
	}
	if err := n.R.Unmarshal(pt); err != nil {
		return fmt.Errorf("wallet: decoding note point: %w", err)
	}
	if n.Owner, err = r.element(); err != nil {
		return err
	}
	if n.Rho, err = r.element(); err != nil {
		return err
	}
	if n.Commitment, err = r.element(); err != nil {
		return err
	}
	if n.Pos, err = r.uint64(); err != nil {
		return err
	}
	if n.Value, err = r.uint64(); err != nil {
		return err
	}
	if n.EncValue, err = r.element(); err != nil {
		return err
	}
	if n.EncBlinder, err = r.element(); err != nil {
		return err
	}
	return nil
}

func (n *Note) encodeTo(buf *bytes.Buffer) {
	b, _ := n.MarshalBinary()
	buf.Write(b)
}

// ---- Opening ----

// MarshalBinary encodes the opening in its fixed layout.
func (o *Opening) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, openingSize))
	putUint64(buf, o.Position)
	for i := 0; i < TreeDepth; i++ {
		putElement(buf, o.Path[i])
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an opening from its fixed layout.
func (o *Opening) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	if err := o.decodeFrom(r); err != nil {
		return err
	}
	return r.done()
}

func (o *Opening) decodeFrom(r *reader) error {
	var err error
	if o.Position, err = r.uint64(); err != nil {
		return err
	}
	for i := 0; i < TreeDepth; i++ {
		if o.Path[i], err = r.element(); err != nil {
			return err
		}
	}
	return nil
}

// ---- Fee ----

// MarshalBinary encodes the fee in its fixed layout.
func (f *Fee) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, feeSize))
	putUint64(buf, f.GasLimit)
	putUint64(buf, f.GasPrice)
	buf.Write(f.Refund.Bytes())
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a fee from its fixed layout.
func (f *Fee) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	if err := f.decodeFrom(r); err != nil {
		return err
	}
	return r.done()
}

func (f *Fee) decodeFrom(r *reader) error {
	var err error
	if f.GasLimit, err = r.uint64(); err != nil {
		return err
	}
	if f.GasPrice, err = r.uint64(); err != nil {
		return err
	}
	pk, err := r.take(pubKeySize)
	if err != nil {
		return err
	}
	return f.Refund.SetBytes(pk)
}

// ---- UnprovenTransaction ----

// MarshalBinary encodes the transaction in its fixed layout.
func (utx *UnprovenTransaction) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)

	putUint32(buf, uint32(len(utx.Inputs)))
	for i := range utx.Inputs {
		in := &utx.Inputs[i]
		in.Note.encodeTo(buf)
		putUint64(buf, in.Value)
		putElement(buf, in.Blinder)
		ob, _ := in.Opening.MarshalBinary()
		buf.Write(ob)
		putElement(buf, in.Nullifier)
		putVarBytes(buf, in.Signature)
	}

	putUint32(buf, uint32(len(utx.Outputs)))
	for i := range utx.Outputs {
		out := &utx.Outputs[i]
		out.Note.encodeTo(buf)
		putUint64(buf, out.Value)
		putElement(buf, out.Blinder)
	}

	putElement(buf, utx.Anchor)
	fb, _ := utx.Fee.MarshalBinary()
	buf.Write(fb)

	if utx.Crossover != nil {
		buf.WriteByte(1)
		putElement(buf, utx.Crossover.Commitment)
		putUint64(buf, utx.CrossoverValue)
		putElement(buf, utx.CrossoverBlinder)
	} else {
		buf.WriteByte(0)
	}

	if utx.Call != nil {
		buf.WriteByte(1)
		buf.Write(utx.Call.Contract[:])
		putVarBytes(buf, utx.Call.Data)
	} else {
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a transaction from its fixed layout.
func (utx *UnprovenTransaction) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	*utx = UnprovenTransaction{}

	nin, err := r.uint32()
	if err != nil {
		return err
	}
	utx.Inputs = make([]TransactionInput, nin)
	for i := range utx.Inputs {
		in := &utx.Inputs[i]
		if err := in.Note.decodeFrom(r); err != nil {
			return err
		}
		if in.Value, err = r.uint64(); err != nil {
			return err
		}
		if in.Blinder, err = r.element(); err != nil {
			return err
		}
		if err := in.Opening.decodeFrom(r); err != nil {
			return err
		}
		if in.Nullifier, err = r.element(); err != nil {
			return err
		}
		if in.Signature, err = r.varBytes(); err != nil {
			return err
		}
	}

	nout, err := r.uint32()
	if err != nil {
		return err
	}
	utx.Outputs = make([]TransactionOutput, nout)
	for i := range utx.Outputs {
		out := &utx.Outputs[i]
		if err := out.Note.decodeFrom(r); err != nil {
			return err
		}
		if out.Value, err = r.uint64(); err != nil {
			return err
		}
		if out.Blinder, err = r.element(); err != nil {
			return err
		}
	}

	if utx.Anchor, err = r.element(); err != nil {
		return err
	}
	if err := utx.Fee.decodeFrom(r); err != nil {
		return err
	}

	flag, err := r.byte()
	if err != nil {
		return err
	}
	if flag == 1 {
		utx.Crossover = &Crossover{}
		if utx.Crossover.Commitment, err = r.element(); err != nil {
			return err
		}
		if utx.CrossoverValue, err = r.uint64(); err != nil {
			return err
		}
		if utx.CrossoverBlinder, err = r.element(); err != nil {
			return err
		}
	}

	if flag, err = r.byte(); err != nil {
		return err
	}
	if flag == 1 {
		utx.Call = &ContractCall{}
		id, err := r.take(32)
		if err != nil {
			return err
		}
		copy(utx.Call.Contract[:], id)
		if utx.Call.Data, err = r.varBytes(); err != nil {
			return err
		}
	}

	return r.done()
}

// Equal reports whether two unproven transactions encode identically.
func (utx *UnprovenTransaction) Equal(other *UnprovenTransaction) bool {
	a, err := utx.MarshalBinary()
	if err != nil {
		return false
	}
	b, err := other.MarshalBinary()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// ---- Transaction ----

// MarshalBinary encodes the proven transaction in its fixed layout.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)

	putUint32(buf, uint32(len(tx.Nullifiers)))
	for i := range tx.Nullifiers {
		putElement(buf, tx.Nullifiers[i])
	}

	putUint32(buf, uint32(len(tx.Outputs)))
	for i := range tx.Outputs {
		tx.Outputs[i].encodeTo(buf)
	}

	putElement(buf, tx.Anchor)
	fb, _ := tx.Fee.MarshalBinary()
	buf.Write(fb)

	if tx.Crossover != nil {
		buf.WriteByte(1)
		putElement(buf, tx.Crossover.Commitment)
	} else {
		buf.WriteByte(0)
	}

	if tx.Call != nil {
		buf.WriteByte(1)
		buf.Write(tx.Call.Contract[:])
		putVarBytes(buf, tx.Call.Data)
	} else {
		buf.WriteByte(0)
	}

	putVarBytes(buf, tx.Proof)

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a proven transaction from its fixed layout.
func (tx *Transaction) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	*tx = Transaction{}

	nnull, err := r.uint32()
	if err != nil {
		return err
	}
	tx.Nullifiers = make([]fr.Element, nnull)
	for i := range tx.Nullifiers {
		if tx.Nullifiers[i], err = r.element(); err != nil {
			return err
		}
	}

	nout, err := r.uint32()
	if err != nil {
		return err
	}
	tx.Outputs = make([]Note, nout)
	for i := range tx.Outputs {
		if err := tx.Outputs[i].decodeFrom(r); err != nil {
			return err
		}
	}

	if tx.Anchor, err = r.element(); err != nil {
		return err
	}
	if err := tx.Fee.decodeFrom(r); err != nil {
		return err
	}

	flag, err := r.byte()
	if err != nil {
		return err
	}
	if flag == 1 {
		tx.Crossover = &Crossover{}
		if tx.Crossover.Commitment, err = r.element(); err != nil {
			return err
		}
	}

	if flag, err = r.byte(); err != nil {
		return err
	}
	if flag == 1 {
		tx.Call = &ContractCall{}
		id, err := r.take(32)
		if err != nil {
			return err
		}
		copy(tx.Call.Contract[:], id)
		if tx.Call.Data, err = r.varBytes(); err != nil {
			return err
		}
	}

	proof, err := r.varBytes()
	if err != nil {
		return err
	}
	tx.Proof = proof

	return r.done()
}

// Equal reports whether two proven transactions encode identically.
func (tx *Transaction) Equal(other *Transaction) bool {
	a, err := tx.MarshalBinary()
	if err != nil {
		return false
	}
	b, err := other.MarshalBinary()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// ---- canonical CBOR form ----

type noteWire struct {
	Type       uint8  `cbor:"type"`
	R          []byte `cbor:"r"`
	Owner      []byte `cbor:"owner"`
	Rho        []byte `cbor:"rho"`
	Commitment []byte `cbor:"commitment"`
	Pos        uint64 `cbor:"pos"`
	Value      uint64 `cbor:"value"`
	EncValue   []byte `cbor:"enc_value"`
	EncBlinder []byte `cbor:"enc_blinder"`
}

type openingWire struct {
	Position uint64   `cbor:"position"`
	Path     [][]byte `cbor:"path"`
}

type inputWire struct {
	Note      noteWire    `cbor:"note"`
	Value     uint64      `cbor:"value"`
	Blinder   []byte      `cbor:"blinder"`
	Opening   openingWire `cbor:"opening"`
	Nullifier []byte      `cbor:"nullifier"`
	Signature []byte      `cbor:"signature"`
}

type outputWire struct {
	Note    noteWire `cbor:"note"`
	Value   uint64   `cbor:"value"`
	Blinder []byte   `cbor:"blinder"`
}

type feeWire struct {
	GasLimit uint64 `cbor:"gas_limit"`
	GasPrice uint64 `cbor:"gas_price"`
	Refund   []byte `cbor:"refund"`
}

type crossoverWire struct {
	Commitment []byte `cbor:"commitment"`
	Value      uint64 `cbor:"value"`
	Blinder    []byte `cbor:"blinder"`
}

type callWire struct {
	Contract []byte `cbor:"contract"`
	Data     []byte `cbor:"data"`
}

type utxWire struct {
	Inputs    []inputWire    `cbor:"inputs"`
	Outputs   []outputWire   `cbor:"outputs"`
	Anchor    []byte         `cbor:"anchor"`
	Fee       feeWire        `cbor:"fee"`
	Crossover *crossoverWire `cbor:"crossover"`
	Call      *callWire      `cbor:"call"`
}

type txWire struct {
	Nullifiers [][]byte   `cbor:"nullifiers"`
	Outputs    []noteWire `cbor:"outputs"`
	Anchor     []byte     `cbor:"anchor"`
	Fee        feeWire    `cbor:"fee"`
	Crossover  []byte     `cbor:"crossover"`
	Call       *callWire  `cbor:"call"`
	Proof      []byte     `cbor:"proof"`
}

func elementBytes(e fr.Element) []byte {
	b := e.Bytes()
	return b[:]
}

func elementFromBytes(data []byte) (fr.Element, error) {
	if len(data) != elementSize {
		return fr.Element{}, fmt.Errorf("wallet: expected %d-byte scalar, got %d", elementSize, len(data))
	}
	var e fr.Element
	e.SetBytes(data)
	return e, nil
}

func (n *Note) toWire() noteWire {
	return noteWire{
		Type:       uint8(n.Type),
		R:          n.R.Marshal(),
		Owner:      elementBytes(n.Owner),
		Rho:        elementBytes(n.Rho),
		Commitment: elementBytes(n.Commitment),
		Pos:        n.Pos,
		Value:      n.Value,
		EncValue:   elementBytes(n.EncValue),
		EncBlinder: elementBytes(n.EncBlinder),
	}
}

func (n *Note) fromWire(w noteWire) error {
	n.Type = NoteType(w.Type)
	if err := n.R.Unmarshal(w.R); err != nil {
		return fmt.Errorf("wallet: decoding note point: %w", err)
	}
	var err error
	if n.Owner, err = elementFromBytes(w.Owner); err != nil {
		return err
	}
	if n.Rho, err = elementFromBytes(w.Rho); err != nil {
		return err
	}
	if n.Commitment, err = elementFromBytes(w.Commitment); err != nil {
		return err
	}
	n.Pos = w.Pos
	n.Value = w.Value
	if n.EncValue, err = elementFromBytes(w.EncValue); err != nil {
		return err
	}
	if n.EncBlinder, err = elementFromBytes(w.EncBlinder); err != nil {
		return err
	}
	return nil
}

func (o *Opening) toWire() openingWire {
	w := openingWire{Position: o.Position, Path: make([][]byte, TreeDepth)}
	for i := 0; i < TreeDepth; i++ {
		w.Path[i] = elementBytes(o.Path[i])
	}
	return w
}

func (o *Opening) fromWire(w openingWire) error {
	if len(w.Path) != TreeDepth {
		return fmt.Errorf("wallet: expected %d-level opening, got %d", TreeDepth, len(w.Path))
	}
	o.Position = w.Position
	var err error
	for i := 0; i < TreeDepth; i++ {
		if o.Path[i], err = elementFromBytes(w.Path[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fee) toWire() feeWire {
	return feeWire{GasLimit: f.GasLimit, GasPrice: f.GasPrice, Refund: f.Refund.Bytes()}
}

func (f *Fee) fromWire(w feeWire) error {
	f.GasLimit = w.GasLimit
	f.GasPrice = w.GasPrice
	return f.Refund.SetBytes(w.Refund)
}

// MarshalCanonical encodes the transaction in canonical CBOR.
func (utx *UnprovenTransaction) MarshalCanonical() ([]byte, error) {
	w := utxWire{
		Inputs:  make([]inputWire, len(utx.Inputs)),
		Outputs: make([]outputWire, len(utx.Outputs)),
		Anchor:  elementBytes(utx.Anchor),
		Fee:     utx.Fee.toWire(),
	}
	for i := range utx.Inputs {
		in := &utx.Inputs[i]
		w.Inputs[i] = inputWire{
			Note:      in.Note.toWire(),
			Value:     in.Value,
			Blinder:   elementBytes(in.Blinder),
			Opening:   in.Opening.toWire(),
			Nullifier: elementBytes(in.Nullifier),
			Signature: in.Signature,
		}
	}
	for i := range utx.Outputs {
		out := &utx.Outputs[i]
		w.Outputs[i] = outputWire{
			Note:    out.Note.toWire(),
			Value:   out.Value,
			Blinder: elementBytes(out.Blinder),
		}
	}
	if utx.Crossover != nil {
		w.Crossover = &crossoverWire{
			Commitment: elementBytes(utx.Crossover.Commitment),
			Value:      utx.CrossoverValue,
			Blinder:    elementBytes(utx.CrossoverBlinder),
		}
	}
	if utx.Call != nil {
		w.Call = &callWire{Contract: utx.Call.Contract[:], Data: utx.Call.Data}
	}
	return encodeCanonical(w)
}

// UnmarshalCanonical decodes a transaction from canonical CBOR.
func (utx *UnprovenTransaction) UnmarshalCanonical(data []byte) error {
	var w utxWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("wallet: decoding transaction: %w", err)
	}
	*utx = UnprovenTransaction{
		Inputs:  make([]TransactionInput, len(w.Inputs)),
		Outputs: make([]TransactionOutput, len(w.Outputs)),
		Fee:     Fee{},
	}
	var err error
	for i := range w.Inputs {
		in := &utx.Inputs[i]
		if err = in.Note.fromWire(w.Inputs[i].Note); err != nil {
			return err
		}
		in.Value = w.Inputs[i].Value
		if in.Blinder, err = elementFromBytes(w.Inputs[i].Blinder); err != nil {
			return err
		}
		if err = in.Opening.fromWire(w.Inputs[i].Opening); err != nil {
			return err
		}
		if in.Nullifier, err = elementFromBytes(w.Inputs[i].Nullifier); err != nil {
			return err
		}
		in.Signature = w.Inputs[i].Signature
	}
	for i := range w.Outputs {
		out := &utx.Outputs[i]
		if err = out.Note.fromWire(w.Outputs[i].Note); err != nil {
			return err
		}
		out.Value = w.Outputs[i].Value
		if out.Blinder, err = elementFromBytes(w.Outputs[i].Blinder); err != nil {
			return err
		}
	}
	if utx.Anchor, err = elementFromBytes(w.Anchor); err != nil {
		return err
	}
	if err = utx.Fee.fromWire(w.Fee); err != nil {
		return err
	}
	if w.Crossover != nil {
		utx.Crossover = &Crossover{}
		if utx.Crossover.Commitment, err = elementFromBytes(w.Crossover.Commitment); err != nil {
			return err
		}
		utx.CrossoverValue = w.Crossover.Value
		if utx.CrossoverBlinder, err = elementFromBytes(w.Crossover.Blinder); err != nil {
			return err
		}
	}
	if w.Call != nil {
		utx.Call = &ContractCall{Data: w.Call.Data}
		if len(w.Call.Contract) != 32 {
			return fmt.Errorf("wallet: expected 32-byte contract id, got %d", len(w.Call.Contract))
		}
		copy(utx.Call.Contract[:], w.Call.Contract)
	}
	return nil
}

// MarshalCanonical encodes the proven transaction in canonical CBOR.
func (tx *Transaction) MarshalCanonical() ([]byte, error) {
	w := txWire{
		Nullifiers: make([][]byte, len(tx.Nullifiers)),
		Outputs:    make([]noteWire, len(tx.Outputs)),
		Anchor:     elementBytes(tx.Anchor),
		Fee:        tx.Fee.toWire(),
		Proof:      tx.Proof,
	}
	for i := range tx.Nullifiers {
		w.Nullifiers[i] = elementBytes(tx.Nullifiers[i])
	}
	for i := range tx.Outputs {
		w.Outputs[i] = tx.Outputs[i].toWire()
	}
	if tx.Crossover != nil {
		w.Crossover = elementBytes(tx.Crossover.Commitment)
	}
	if tx.Call != nil {
		w.Call = &callWire{Contract: tx.Call.Contract[:], Data: tx.Call.Data}
	}
	return encodeCanonical(w)
}

// UnmarshalCanonical decodes a proven transaction from canonical CBOR.
func (tx *Transaction) UnmarshalCanonical(data []byte) error {
	var w txWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("wallet: decoding transaction: %w", err)
	}
	*tx = Transaction{
		Nullifiers: make([]fr.Element, len(w.Nullifiers)),
		Outputs:    make([]Note, len(w.Outputs)),
		Proof:      w.Proof,
	}
	var err error
	for i := range w.Nullifiers {
		if tx.Nullifiers[i], err = elementFromBytes(w.Nullifiers[i]); err != nil {
			return err
		}
	}
	for i := range w.Outputs {
		if err = tx.Outputs[i].fromWire(w.Outputs[i]); err != nil {
			return err
		}
	}
	if tx.Anchor, err = elementFromBytes(w.Anchor); err != nil {
		return err
	}
	if err = tx.Fee.fromWire(w.Fee); err != nil {
		return err
	}
	if w.Crossover != nil {
		tx.Crossover = &Crossover{}
		if tx.Crossover.Commitment, err = elementFromBytes(w.Crossover); err != nil {
			return err
		}
	}
	if w.Call != nil {
		tx.Call = &ContractCall{Data: w.Call.Data}
		if len(w.Call.Contract) != 32 {
			return fmt.Errorf("wallet: expected 32-byte contract id, got %d", len(w.Call.Contract))
		}
		copy(tx.Call.Contract[:], w.Call.Contract)
	}
	return nil
}

// CheckUnprovenRoundTrip encodes utx in both supported forms, decodes each,
// and fails with ErrSerializationMismatch unless both reproduce the
// original. Prover implementations run this before proving.
func CheckUnprovenRoundTrip(utx *UnprovenTransaction) error {
	fixed, err := utx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	var fromFixed UnprovenTransaction
	if err := fromFixed.UnmarshalBinary(fixed); err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	if !utx.Equal(&fromFixed) {
		return fmt.Errorf("%w: fixed-layout decode differs", ErrSerializationMismatch)
	}

	canonical, err := utx.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	var fromCanonical UnprovenTransaction
	if err := fromCanonical.UnmarshalCanonical(canonical); err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	if !utx.Equal(&fromCanonical) {
		return fmt.Errorf("%w: canonical decode differs", ErrSerializationMismatch)
	}
	return nil
}

// CheckTransactionRoundTrip is CheckUnprovenRoundTrip for the proven form.
func CheckTransactionRoundTrip(tx *Transaction) error {
	fixed, err := tx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	var fromFixed Transaction
	if err := fromFixed.UnmarshalBinary(fixed); err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	if !tx.Equal(&fromFixed) {
		return fmt.Errorf("%w: fixed-layout decode differs", ErrSerializationMismatch)
	}

	canonical, err := tx.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	var fromCanonical Transaction
	if err := fromCanonical.UnmarshalCanonical(canonical); err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationMismatch, err)
	}
	if !tx.Equal(&fromCanonical) {
		return fmt.Errorf("%w: canonical decode differs", ErrSerializationMismatch)
	}
	return nil
}
