package instancer

/**
 * @brief Produces the indices of count instances. Slot i holds
 * protoIndices[i%I] + (i/I)*vertexCount + indexOffset, where indexOffset is
 * the number of vertices already written to the target segment.
 */
func RemapIndices(exec Executor, protoIndices []uint32, count int, vertexCount, indexOffset uint32, batchSize int) ([]uint32, error) {
	if count <= 0 {
		return []uint32{}, nil
	}
	if exec == nil {
		exec = SerialExecutor{}
	}

	indexCount := len(protoIndices)
	out := make([]uint32, count*indexCount)
	err := exec.ParallelFor(len(out), batchSize, func(index int) {
		instance := uint32(index / indexCount)
		out[index] = protoIndices[index%indexCount] + instance*vertexCount + indexOffset
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
