package psi

import (
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/cuckoo"
	"github.com/momalab/psi-ndss2025/internal/errs"
)

// EncryptTable flattens the Cuckoo's k tables into a CRT-packed ciphertext
// sequence: with N slots per plaintext, ciphertext i's slot j*k+l
// holds table l's value at bin i*N+j. Encryption is symmetric under the
// Sender's own key.
func EncryptTable(table *cuckoo.Kuckoo, c crt.Params, ctx *Context, sender *Keys) ([]*rlwe.Ciphertext, error) {
	k := c.K()
	if uint64(k) != table.NumTables() {
		return nil, errs.New(errs.KindParameter, "psi: number of CRT moduli must equal the number of Cuckoo tables", nil)
	}

	n := int(table.TableSize())
	slots := int(ctx.Params.MaxSlots())
	numCiphertexts := n/slots + boolToInt(n%slots != 0)

	rows := make([][]uint64, k)
	for l := 0; l < k; l++ {
		rows[l] = table.Table(uint64(l))
	}

	out := make([]*rlwe.Ciphertext, numCiphertexts)
	for i := 0; i < numCiphertexts; i++ {
		offset := i * slots
		m := slots
		if n-offset < m {
			m = n - offset
		}
		v := make([]uint64, k*slots)
		for j := 0; j < m; j++ {
			for l := 0; l < k; l++ {
				v[j*k+l] = rows[l][offset+j]
			}
		}
		ct, err := packEncrypt(v, c, ctx, sender)
		if err != nil {
			return nil, err
		}
		out[i] = ct
	}
	return out, nil
}

// EncryptTableParallel is EncryptTable using up to numThreads workers, one
// ciphertext slice index per iteration, matching the original's
// thread-partitioned packEncrypt.
func EncryptTableParallel(table *cuckoo.Kuckoo, c crt.Params, ctx *Context, sender *Keys, numThreads int) ([]*rlwe.Ciphertext, error) {
	k := c.K()
	if uint64(k) != table.NumTables() {
		return nil, errs.New(errs.KindParameter, "psi: number of CRT moduli must equal the number of Cuckoo tables", nil)
	}

	n := int(table.TableSize())
	slots := int(ctx.Params.MaxSlots())
	numCiphertexts := n/slots + boolToInt(n%slots != 0)
	if numThreads > numCiphertexts {
		numThreads = numCiphertexts
	}
	if numThreads < 1 {
		numThreads = 1
	}

	rows := make([][]uint64, k)
	for l := 0; l < k; l++ {
		rows[l] = table.Table(uint64(l))
	}

	out := make([]*rlwe.Ciphertext, numCiphertexts)
	errCh := make(chan error, numThreads)
	var wg sync.WaitGroup
	for t := 0; t < numThreads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			for i := t; i < numCiphertexts; i += numThreads {
				offset := i * slots
				m := slots
				if n-offset < m {
					m = n - offset
				}
				v := make([]uint64, k*slots)
				for j := 0; j < m; j++ {
					for l := 0; l < k; l++ {
						v[j*k+l] = rows[l][offset+j]
					}
				}
				ct, err := packEncrypt(v, c, ctx, sender)
				if err != nil {
					errCh <- err
					return
				}
				out[i] = ct
			}
		}(t)
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
