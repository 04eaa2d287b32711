package auditio

import "sync"

// FlushAll performs a best-effort global flush: for every project with a
// non-empty annotation buffer or pending manifest entries, it runs the
// respective flush path and awaits all of them in parallel. Errors are
// logged at warn level per-project and never fail the aggregate.
func (r *Runtime) FlushAll() {
	var wg sync.WaitGroup
	for _, project := range r.knownProjects() {
		project := project
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.flushAnnotations(project)
		}()
		go func() {
			defer wg.Done()
			if err := r.forceFlushManifest(project); err != nil {
				r.logger.Warnf("auditio: flush_all manifest for %s: %v", project, err)
			}
		}()
	}
	wg.Wait()
}
