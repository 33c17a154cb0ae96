package driver_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/driver"
	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/vm"
)

type fakeFrontend struct {
	mu        sync.Mutex
	opened    bool
	closed    bool
	frames    []display.Snapshot
	openErr   error
	renderErr error
	closeErr  error
}

func (f *fakeFrontend) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return f.openErr
}

func (f *fakeFrontend) Render(snap display.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, snap)
	return f.renderErr
}

func (f *fakeFrontend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

type failingMachine struct {
	err error
}

func (m *failingMachine) Cycle(context.Context) (vm.CycleResult, error) {
	return vm.CycleResult{}, m.err
}

func (m *failingMachine) Display() display.Snapshot {
	return display.New().Snapshot()
}

func (m *failingMachine) SoundActive() bool {
	return false
}

func words(program ...uint16) []byte {
	data := make([]byte, 0, 2*len(program))
	for _, w := range program {
		data = append(data, byte(w>>8), byte(w))
	}
	return data
}

var _ = Describe("Driver", func() {
	var (
		frontend *fakeFrontend
		machine  *vm.VM
	)

	logger := config.CreateLogger(false, true)

	BeforeEach(func() {
		frontend = &fakeFrontend{}
		machine = vm.New()
	})

	runFor := func(d *driver.Driver, duration time.Duration) error {
		ctx, cancel := context.WithTimeout(context.Background(), duration)
		defer cancel()
		return d.Run(ctx)
	}

	Describe("running a drawing program", func() {
		BeforeEach(func() {
			// draw glyph 0 at 10,10 and loop forever
			Expect(machine.LoadProgram(words(0x600A, 0xA000, 0xD005, 0x1206))).To(Succeed())
		})

		It("renders the initial frame and every drawing cycle", func() {
			d := driver.New(logger, machine, frontend, 0)
			Expect(runFor(d, 50*time.Millisecond)).To(Succeed())

			Expect(frontend.frames).To(HaveLen(2))
			Expect(frontend.frames[0].Lit()).To(Equal(0))
			Expect(frontend.frames[1].Pixel(10, 10)).To(BeTrue())
			Expect(d.Frames()).To(Equal(uint64(2)))
			Expect(d.Cycles()).To(BeNumerically(">", 3))
		})

		It("opens and closes the frontend", func() {
			d := driver.New(logger, machine, frontend, 0)
			Expect(runFor(d, 10*time.Millisecond)).To(Succeed())

			Expect(frontend.opened).To(BeTrue())
			Expect(frontend.closed).To(BeTrue())
		})

		It("paces execution at the configured rate", func() {
			d := driver.New(logger, machine, frontend, 100)
			Expect(runFor(d, 200*time.Millisecond)).To(Succeed())

			Expect(d.Cycles()).To(BeNumerically(">", 0))
			Expect(d.Cycles()).To(BeNumerically("<=", 25))
		})
	})

	Describe("waiting for a key", func() {
		It("stops without error when cancelled", func() {
			machine = vm.New(vm.WithKeypad(keypad.NewQueue(1)))
			Expect(machine.LoadProgram(words(0xF00A))).To(Succeed())

			d := driver.New(logger, machine, frontend, 0)
			Expect(runFor(d, 20*time.Millisecond)).To(Succeed())

			Expect(d.Cycles()).To(Equal(uint64(0)))
			Expect(machine.PC()).To(Equal(uint16(vm.ProgramStart)))
		})

		It("continues after a key press", func() {
			keys := keypad.NewQueue(1)
			machine = vm.New(vm.WithKeypad(keys))
			Expect(machine.LoadProgram(words(0xF30A, 0x1202))).To(Succeed())
			Expect(keys.Press(0xB)).To(BeTrue())

			d := driver.New(logger, machine, frontend, 0)
			Expect(runFor(d, 20*time.Millisecond)).To(Succeed())

			Expect(machine.V(3)).To(Equal(byte(0xB)))
			Expect(machine.PC()).To(Equal(uint16(0x202)))
		})
	})

	Describe("failures", func() {
		It("returns cycle errors and closes the frontend", func() {
			d := driver.New(logger, &failingMachine{err: vm.ErrAddressOutOfRange}, frontend, 0)
			err := runFor(d, time.Second)

			Expect(err).To(MatchError(vm.ErrAddressOutOfRange))
			Expect(frontend.closed).To(BeTrue())
		})

		It("returns the fetch fault of a program running off memory", func() {
			Expect(machine.LoadProgram(words(0x1FFF))).To(Succeed())

			d := driver.New(logger, machine, frontend, 0)
			err := runFor(d, time.Second)

			var addrErr *vm.AddressError
			Expect(errors.As(err, &addrErr)).To(BeTrue())
		})

		It("does not run when the frontend can not be opened", func() {
			frontend.openErr = errors.New("no tty")
			d := driver.New(logger, machine, frontend, 0)

			Expect(runFor(d, time.Second)).To(MatchError(frontend.openErr))
			Expect(frontend.frames).To(BeEmpty())
		})

		It("returns render errors", func() {
			frontend.renderErr = errors.New("broken pipe")
			d := driver.New(logger, machine, frontend, 0)

			Expect(runFor(d, time.Second)).To(MatchError(frontend.renderErr))
			Expect(d.Cycles()).To(Equal(uint64(0)))
		})

		It("reports close errors", func() {
			frontend.closeErr = errors.New("restore failed")
			Expect(machine.LoadProgram(words(0x1200))).To(Succeed())
			d := driver.New(logger, machine, frontend, 0)

			Expect(runFor(d, 10*time.Millisecond)).To(MatchError(frontend.closeErr))
		})

		It("reports keypad failures", func() {
			keys := keypad.NewQueue(1)
			machine = vm.New(vm.WithKeypad(keys))
			Expect(machine.LoadProgram(words(0xF00A))).To(Succeed())
			deviceErr := errors.New("device gone")
			keys.Fail(deviceErr)

			d := driver.New(logger, machine, frontend, 0)
			Expect(runFor(d, time.Second)).To(MatchError(deviceErr))
		})
	})
})
