package repos

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"Internect/internal/atproto/pds"
)

// ErrCircuitOpen is returned while a PDS host is considered down
var ErrCircuitOpen = errors.New("circuit open")

// circuitState represents the state of a host's circuit
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Host failing, requests short-circuit
	stateHalfOpen                     // One trial request allowed through
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "OPEN (failing)"
	case stateHalfOpen:
		return "HALF-OPEN (testing)"
	default:
		return "CLOSED (recovered)"
	}
}

type hostCircuit struct {
	state         circuitState
	failures      int
	lastFailure   time.Time
	trialInFlight bool
}

// circuitBreaker stops calling PDS hosts that keep failing. Rejections by
// the PDS itself (bad request, unknown repo) do not count as failures.
type circuitBreaker struct {
	hosts            map[string]*hostCircuit
	failureThreshold int
	openDuration     time.Duration
	now              func() time.Time
	mu               sync.Mutex
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		hosts:            make(map[string]*hostCircuit),
		failureThreshold: 3,               // Open after 3 consecutive failures
		openDuration:     2 * time.Minute, // Keep open for 2 minutes
		now:              time.Now,
	}
}

// allow reports whether a request to host may proceed. An open circuit moves
// to half-open once openDuration has passed since the last failure, and a
// half-open circuit admits a single trial until its result is recorded.
func (cb *circuitBreaker) allow(host string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	hc, ok := cb.hosts[host]
	if !ok || hc.state == stateClosed {
		return nil
	}

	switch hc.state {
	case stateOpen:
		retryAt := hc.lastFailure.Add(cb.openDuration)
		if cb.now().Before(retryAt) {
			return fmt.Errorf("%w for %s (failures: %d, next retry: %s)",
				ErrCircuitOpen, host, hc.failures, retryAt.Format("15:04:05"))
		}
		hc.state = stateHalfOpen
		log.Printf("[REPO-CIRCUIT] Circuit for %s is now %s", host, hc.state)
	case stateHalfOpen:
		if hc.trialInFlight {
			return fmt.Errorf("%w for %s (trial request in flight)", ErrCircuitOpen, host)
		}
	}

	hc.trialInFlight = true
	return nil
}

// record updates host's circuit with the result of a request
func (cb *circuitBreaker) record(host string, err error) {
	if err != nil && pds.IsClientError(err) {
		err = nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	hc, ok := cb.hosts[host]
	if err == nil {
		if ok && hc.state != stateClosed {
			log.Printf("[REPO-CIRCUIT] Circuit for %s is now %s", host, stateClosed)
		}
		delete(cb.hosts, host)
		return
	}

	if !ok {
		hc = &hostCircuit{}
		cb.hosts[host] = hc
	}
	hc.failures++
	hc.lastFailure = cb.now()
	hc.trialInFlight = false

	// a failed trial request reopens immediately
	if hc.state == stateHalfOpen || hc.failures >= cb.failureThreshold {
		if hc.state != stateOpen {
			log.Printf("[REPO-CIRCUIT] Opening circuit for %s after %d consecutive failures. Last error: %v",
				host, hc.failures, err)
		}
		hc.state = stateOpen
		return
	}

	log.Printf("[REPO-CIRCUIT] Failure %d/%d for %s: %v", hc.failures, cb.failureThreshold, host, err)
}
