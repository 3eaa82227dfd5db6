// Package lextest provides in-memory fakes of the Lex model building and
// Lambda permission APIs.
package lextest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice/types"
)

// Operation names recorded in Call.Op and used as keys of FakeLex.Errs
const (
	OpGetBot                = "GetBot"
	OpPutBot                = "PutBot"
	OpCreateBotVersion      = "CreateBotVersion"
	OpDeleteBot             = "DeleteBot"
	OpGetIntent             = "GetIntent"
	OpPutIntent             = "PutIntent"
	OpCreateIntentVersion   = "CreateIntentVersion"
	OpDeleteIntent          = "DeleteIntent"
	OpGetSlotType           = "GetSlotType"
	OpPutSlotType           = "PutSlotType"
	OpCreateSlotTypeVersion = "CreateSlotTypeVersion"
	OpDeleteSlotType        = "DeleteSlotType"
)

// Call is one recorded API call
type Call struct {
	Op       string
	Name     string
	Checksum string
}

// FakeLex keeps the $LATEST checksum of every resource in memory. A put
// without checksum on an existing resource, or with a stale one, fails the
// way the platform does.
type FakeLex struct {
	mu sync.Mutex

	Bots      map[string]string
	Intents   map[string]string
	SlotTypes map[string]string

	// Errs queues errors per operation; each call pops the head when present
	Errs map[string][]error
	// Version is returned by every version publish. Defaults to $LATEST.
	Version string

	Calls             []Call
	PutBotInputs      []*lexmodels.PutBotInput
	PutIntentInputs   []*lexmodels.PutIntentInput
	PutSlotTypeInputs []*lexmodels.PutSlotTypeInput

	puts int
}

// NewFakeLex returns an empty fake
func NewFakeLex() *FakeLex {
	return &FakeLex{
		Bots:      map[string]string{},
		Intents:   map[string]string{},
		SlotTypes: map[string]string{},
		Errs:      map[string][]error{},
	}
}

// FailWith queues errs for op
func (f *FakeLex) FailWith(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[op] = append(f.Errs[op], errs...)
}

// CallsFor returns the recorded calls of op in order
func (f *FakeLex) CallsFor(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []Call
	for _, c := range f.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Ops returns the recorded operation names in order
func (f *FakeLex) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		ops = append(ops, c.Op)
	}
	return ops
}

func (f *FakeLex) GetBot(_ context.Context, in *lexmodels.GetBotInput, _ ...func(*lexmodels.Options)) (*lexmodels.GetBotOutput, error) {
	name := aws.ToString(in.Name)
	checksum, err := f.get(OpGetBot, name, f.Bots)
	if err != nil {
		return nil, err
	}
	return &lexmodels.GetBotOutput{Name: in.Name, Checksum: aws.String(checksum), Version: in.VersionOrAlias}, nil
}

func (f *FakeLex) PutBot(_ context.Context, in *lexmodels.PutBotInput, _ ...func(*lexmodels.Options)) (*lexmodels.PutBotOutput, error) {
	f.mu.Lock()
	f.PutBotInputs = append(f.PutBotInputs, in)
	f.mu.Unlock()

	checksum, err := f.put(OpPutBot, aws.ToString(in.Name), in.Checksum, f.Bots)
	if err != nil {
		return nil, err
	}
	return &lexmodels.PutBotOutput{Name: in.Name, Checksum: aws.String(checksum), Version: aws.String("$LATEST")}, nil
}

func (f *FakeLex) CreateBotVersion(_ context.Context, in *lexmodels.CreateBotVersionInput, _ ...func(*lexmodels.Options)) (*lexmodels.CreateBotVersionOutput, error) {
	version, err := f.publish(OpCreateBotVersion, aws.ToString(in.Name), in.Checksum, f.Bots)
	if err != nil {
		return nil, err
	}
	return &lexmodels.CreateBotVersionOutput{Name: in.Name, Checksum: in.Checksum, Version: aws.String(version)}, nil
}

func (f *FakeLex) DeleteBot(_ context.Context, in *lexmodels.DeleteBotInput, _ ...func(*lexmodels.Options)) (*lexmodels.DeleteBotOutput, error) {
	if err := f.delete(OpDeleteBot, aws.ToString(in.Name), f.Bots); err != nil {
		return nil, err
	}
	return &lexmodels.DeleteBotOutput{}, nil
}

func (f *FakeLex) GetIntent(_ context.Context, in *lexmodels.GetIntentInput, _ ...func(*lexmodels.Options)) (*lexmodels.GetIntentOutput, error) {
	checksum, err := f.get(OpGetIntent, aws.ToString(in.Name), f.Intents)
	if err != nil {
		return nil, err
	}
	return &lexmodels.GetIntentOutput{Name: in.Name, Checksum: aws.String(checksum), Version: in.Version}, nil
}

func (f *FakeLex) PutIntent(_ context.Context, in *lexmodels.PutIntentInput, _ ...func(*lexmodels.Options)) (*lexmodels.PutIntentOutput, error) {
	f.mu.Lock()
	f.PutIntentInputs = append(f.PutIntentInputs, in)
	f.mu.Unlock()

	checksum, err := f.put(OpPutIntent, aws.ToString(in.Name), in.Checksum, f.Intents)
	if err != nil {
		return nil, err
	}
	return &lexmodels.PutIntentOutput{Name: in.Name, Checksum: aws.String(checksum), Version: aws.String("$LATEST")}, nil
}

func (f *FakeLex) CreateIntentVersion(_ context.Context, in *lexmodels.CreateIntentVersionInput, _ ...func(*lexmodels.Options)) (*lexmodels.CreateIntentVersionOutput, error) {
	version, err := f.publish(OpCreateIntentVersion, aws.ToString(in.Name), in.Checksum, f.Intents)
	if err != nil {
		return nil, err
	}
	return &lexmodels.CreateIntentVersionOutput{Name: in.Name, Checksum: in.Checksum, Version: aws.String(version)}, nil
}

func (f *FakeLex) DeleteIntent(_ context.Context, in *lexmodels.DeleteIntentInput, _ ...func(*lexmodels.Options)) (*lexmodels.DeleteIntentOutput, error) {
	if err := f.delete(OpDeleteIntent, aws.ToString(in.Name), f.Intents); err != nil {
		return nil, err
	}
	return &lexmodels.DeleteIntentOutput{}, nil
}

func (f *FakeLex) GetSlotType(_ context.Context, in *lexmodels.GetSlotTypeInput, _ ...func(*lexmodels.Options)) (*lexmodels.GetSlotTypeOutput, error) {
	checksum, err := f.get(OpGetSlotType, aws.ToString(in.Name), f.SlotTypes)
	if err != nil {
		return nil, err
	}
	return &lexmodels.GetSlotTypeOutput{Name: in.Name, Checksum: aws.String(checksum), Version: in.Version}, nil
}

func (f *FakeLex) PutSlotType(_ context.Context, in *lexmodels.PutSlotTypeInput, _ ...func(*lexmodels.Options)) (*lexmodels.PutSlotTypeOutput, error) {
	f.mu.Lock()
	f.PutSlotTypeInputs = append(f.PutSlotTypeInputs, in)
	f.mu.Unlock()

	checksum, err := f.put(OpPutSlotType, aws.ToString(in.Name), in.Checksum, f.SlotTypes)
	if err != nil {
		return nil, err
	}
	return &lexmodels.PutSlotTypeOutput{Name: in.Name, Checksum: aws.String(checksum), Version: aws.String("$LATEST")}, nil
}

func (f *FakeLex) CreateSlotTypeVersion(_ context.Context, in *lexmodels.CreateSlotTypeVersionInput, _ ...func(*lexmodels.Options)) (*lexmodels.CreateSlotTypeVersionOutput, error) {
	version, err := f.publish(OpCreateSlotTypeVersion, aws.ToString(in.Name), in.Checksum, f.SlotTypes)
	if err != nil {
		return nil, err
	}
	return &lexmodels.CreateSlotTypeVersionOutput{Name: in.Name, Checksum: in.Checksum, Version: aws.String(version)}, nil
}

func (f *FakeLex) DeleteSlotType(_ context.Context, in *lexmodels.DeleteSlotTypeInput, _ ...func(*lexmodels.Options)) (*lexmodels.DeleteSlotTypeOutput, error) {
	if err := f.delete(OpDeleteSlotType, aws.ToString(in.Name), f.SlotTypes); err != nil {
		return nil, err
	}
	return &lexmodels.DeleteSlotTypeOutput{}, nil
}

// record logs the call and pops a queued error. Callers hold f.mu.
func (f *FakeLex) record(op, name string, checksum *string) error {
	f.Calls = append(f.Calls, Call{Op: op, Name: name, Checksum: aws.ToString(checksum)})
	if queued := f.Errs[op]; len(queued) > 0 {
		f.Errs[op] = queued[1:]
		return queued[0]
	}
	return nil
}

func (f *FakeLex) get(op, name string, store map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(op, name, nil); err != nil {
		return "", err
	}
	checksum, ok := store[name]
	if !ok {
		return "", NotFound(name)
	}
	return checksum, nil
}

func (f *FakeLex) put(op, name string, checksum *string, store map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(op, name, checksum); err != nil {
		return "", err
	}
	current, exists := store[name]
	switch {
	case exists && checksum == nil:
		return "", PreconditionFailed(fmt.Sprintf("%s already exists, a checksum is required", name))
	case !exists && checksum != nil:
		return "", NotFound(name)
	case exists && aws.ToString(checksum) != current:
		return "", PreconditionFailed(fmt.Sprintf("checksum mismatch for %s", name))
	}

	f.puts++
	next := fmt.Sprintf("%s-checksum-%d", name, f.puts)
	store[name] = next
	return next, nil
}

func (f *FakeLex) publish(op, name string, checksum *string, store map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(op, name, checksum); err != nil {
		return "", err
	}
	current, exists := store[name]
	if !exists {
		return "", NotFound(name)
	}
	if checksum != nil && aws.ToString(checksum) != current {
		return "", PreconditionFailed(fmt.Sprintf("checksum mismatch for %s", name))
	}
	if f.Version == "" {
		return "$LATEST", nil
	}
	return f.Version, nil
}

func (f *FakeLex) delete(op, name string, store map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(op, name, nil); err != nil {
		return err
	}
	if _, ok := store[name]; !ok {
		return NotFound(name)
	}
	delete(store, name)
	return nil
}

// FakeLambda records AddPermission calls and rejects duplicate statement ids
type FakeLambda struct {
	mu         sync.Mutex
	Inputs     []*lambda.AddPermissionInput
	Statements map[string]bool
	Err        error
}

// NewFakeLambda returns a fake without statements
func NewFakeLambda() *FakeLambda {
	return &FakeLambda{Statements: map[string]bool{}}
}

func (f *FakeLambda) AddPermission(_ context.Context, in *lambda.AddPermissionInput, _ ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Inputs = append(f.Inputs, in)
	if f.Err != nil {
		return nil, f.Err
	}
	key := aws.ToString(in.FunctionName) + "/" + aws.ToString(in.StatementId)
	if f.Statements[key] {
		return nil, &lambdatypes.ResourceConflictException{
			Message: aws.String(fmt.Sprintf("statement %s already exists", aws.ToString(in.StatementId))),
		}
	}
	f.Statements[key] = true
	return &lambda.AddPermissionOutput{Statement: aws.String(`{"Sid":"` + aws.ToString(in.StatementId) + `"}`)}, nil
}

// NotFound returns the platform error for a missing resource
func NotFound(name string) error {
	return &lextypes.NotFoundException{Message: aws.String(name + " not found")}
}

// InUse returns the platform error for a resource referenced elsewhere
func InUse(name string) error {
	return &lextypes.ResourceInUseException{Message: aws.String(name + " is referenced by another resource")}
}

// Conflict returns the platform error for a concurrent modification
func Conflict(name string) error {
	return &lextypes.ConflictException{Message: aws.String("conflicting change on " + name)}
}

// PreconditionFailed returns the platform error for a checksum mismatch
func PreconditionFailed(msg string) error {
	return &lextypes.PreconditionFailedException{Message: aws.String(msg)}
}
