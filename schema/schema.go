// Package schema encodes program instructions and decodes program accounts using
// the Anchor conventions: an 8 byte discriminator followed by the borsh body.
package schema

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"reflect"

	"github.com/near/borsh-go"
	"github.com/stoewer/go-strcase"
)

const DiscriminatorLength = 8

var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrArgsMismatch       = errors.New("instruction arguments do not match schema")
	ErrDiscriminator      = errors.New("account discriminator mismatch")
)

// Coder is the binary schema of one program.
type Coder interface {
	Version() string
	EncodeInstruction(name string, args interface{}) ([]byte, error)
	DecodeAccount(name string, data []byte, v interface{}) error
}

// InstructionDef names an instruction and gives a zero value of its argument
// struct. Args is nil for instructions without arguments.
type InstructionDef struct {
	Name string
	Args interface{}
}

type AccountDef struct {
	Name string
	Type interface{}
}

type IDL struct {
	Name         string
	Version      string
	Instructions []InstructionDef
	Accounts     []AccountDef
}

type instruction struct {
	discriminator []byte
	args          reflect.Type
}

type account struct {
	discriminator []byte
	typ           reflect.Type
	size          int
}

type AnchorCoder struct {
	idl          IDL
	instructions map[string]instruction
	accounts     map[string]account
}

// NewAnchorCoder precomputes discriminators. Account types must have a fixed
// borsh size.
func NewAnchorCoder(idl IDL) (*AnchorCoder, error) {
	c := &AnchorCoder{
		idl:          idl,
		instructions: make(map[string]instruction),
		accounts:     make(map[string]account),
	}
	for _, ix := range idl.Instructions {
		name := strcase.SnakeCase(ix.Name)
		var args reflect.Type
		if ix.Args != nil {
			args = reflect.TypeOf(ix.Args)
		}
		c.instructions[name] = instruction{discriminator: Discriminator("global", name), args: args}
	}
	for _, acct := range idl.Accounts {
		zero, err := borsh.Serialize(acct.Type)
		if err != nil {
			return nil, fmt.Errorf("account %s has no borsh layout: %v", acct.Name, err)
		}
		c.accounts[acct.Name] = account{
			discriminator: Discriminator("account", acct.Name),
			typ:           reflect.TypeOf(acct.Type),
			size:          len(zero),
		}
	}
	return c, nil
}

func MustAnchorCoder(idl IDL) *AnchorCoder {
	c, err := NewAnchorCoder(idl)
	if err != nil {
		panic(err)
	}
	return c
}

// Discriminator is sha256("<namespace>:<name>")[:8].
func Discriminator(namespace, name string) []byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	return sum[:DiscriminatorLength]
}

func (c *AnchorCoder) Version() string {
	return c.idl.Name + "@" + c.idl.Version
}

// EncodeInstruction accepts snake_case or camelCase names. For instructions
// without arguments args must be nil or an empty string.
func (c *AnchorCoder) EncodeInstruction(name string, args interface{}) ([]byte, error) {
	ix, ok := c.instructions[strcase.SnakeCase(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstruction, name)
	}

	data := append([]byte{}, ix.discriminator...)
	if ix.args == nil {
		if s, isString := args.(string); args != nil && !(isString && s == "") {
			return nil, fmt.Errorf("%w: %s takes no arguments, got %T", ErrArgsMismatch, name, args)
		}
		return data, nil
	}

	if args == nil || reflect.TypeOf(args) != ix.args {
		return nil, fmt.Errorf("%w: %s wants %s, got %T", ErrArgsMismatch, name, ix.args, args)
	}
	body, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("could not serialize %s arguments: %v", name, err)
	}
	return append(data, body...), nil
}

// DecodeAccount checks the discriminator and decodes into v, a pointer to the
// registered type. Trailing bytes past the known layout are ignored.
func (c *AnchorCoder) DecodeAccount(name string, data []byte, v interface{}) error {
	acct, ok := c.accounts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Type() != acct.typ {
		return fmt.Errorf("%w: %s decodes into *%s, got %T", ErrArgsMismatch, name, acct.typ, v)
	}
	if len(data) < DiscriminatorLength+acct.size {
		return fmt.Errorf("account %s: %d bytes, want at least %d", name, len(data), DiscriminatorLength+acct.size)
	}
	if !bytes.Equal(data[:DiscriminatorLength], acct.discriminator) {
		return fmt.Errorf("%w: %s", ErrDiscriminator, name)
	}
	return borsh.Deserialize(v, data[DiscriminatorLength:DiscriminatorLength+acct.size])
}

// EncodeAccount is the inverse of DecodeAccount.
func (c *AnchorCoder) EncodeAccount(name string, v interface{}) ([]byte, error) {
	acct, ok := c.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}
	if reflect.TypeOf(v) != acct.typ {
		return nil, fmt.Errorf("%w: %s encodes %s, got %T", ErrArgsMismatch, name, acct.typ, v)
	}
	body, err := borsh.Serialize(v)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, acct.discriminator...), body...), nil
}
